package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const notificationHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Subject}}</title>
  <style>
    body { margin: 0; padding: 24px; font-family: "Helvetica Neue", Arial, sans-serif; color: #111827; }
    .card { max-width: 640px; margin: 0 auto; border: 1px solid #e5e7eb; border-radius: 8px; padding: 24px; }
    .headline { font-size: 18px; font-weight: 600; border-bottom: 2px solid #b91c1c; padding-bottom: 12px; }
    .row { padding: 8px 0; font-size: 14px; }
    .label { color: #6b7280; text-transform: uppercase; letter-spacing: 0.04em; font-size: 11px; }
  </style>
</head>
<body>
  <div class="card">
    <div class="headline">{{.Subject}}</div>
    <div class="row">{{.Message}}</div>
    {{if .ProductName}}<div class="row"><span class="label">Product</span> {{.ProductName}}</div>{{end}}
    {{if .HasStock}}<div class="row"><span class="label">Current stock</span> {{.CurrentStock}}</div>{{end}}
    <div class="row"><span class="label">Time</span> {{.Timestamp.Format "2006-01-02 15:04:05 MST"}}</div>
  </div>
</body>
</html>`

const digestHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Stock notifications digest</title>
  <style>
    body { margin: 0; padding: 24px; font-family: "Helvetica Neue", Arial, sans-serif; color: #111827; }
    .card { max-width: 720px; margin: 0 auto; border: 1px solid #e5e7eb; border-radius: 8px; padding: 24px; }
    .headline { font-size: 18px; font-weight: 600; border-bottom: 2px solid #1d4ed8; padding-bottom: 12px; }
    table { width: 100%; border-collapse: collapse; margin-top: 16px; font-size: 14px; }
    th { text-align: left; color: #6b7280; text-transform: uppercase; letter-spacing: 0.04em; font-size: 11px; padding: 8px; border-bottom: 1px solid #e5e7eb; }
    td { padding: 8px; border-bottom: 1px solid #f3f4f6; }
  </style>
</head>
<body>
  <div class="card">
    <div class="headline">{{len .Entries}} stock notification{{if gt (len .Entries) 1}}s{{end}}</div>
    <table>
      <tr><th>Product</th><th>Event</th><th>Stock</th><th>Time</th></tr>
      {{range .Entries}}
      <tr>
        <td>{{.ProductName}}</td>
        <td>{{.Message}}</td>
        <td>{{if .HasStock}}{{.CurrentStock}}{{else}}&mdash;{{end}}</td>
        <td>{{.Timestamp.Format "15:04:05"}}</td>
      </tr>
      {{end}}
    </table>
  </div>
</body>
</html>`

var (
	notificationTmpl = template.Must(template.New("notification").Parse(notificationHTMLTemplate))
	digestTmpl       = template.Must(template.New("digest").Parse(digestHTMLTemplate))
)

type renderView struct {
	Subject      string
	Message      string
	ProductName  string
	CurrentStock int
	HasStock     bool
	Timestamp    time.Time
}

var subjects = map[Type]string{
	TypeLowStock:         "Low stock alert",
	TypeOutOfStock:       "Out of stock alert",
	TypeStockReplenished: "Stock replenished",
	TypeSyncFailed:       "Inventory sync failed",
}

func subjectFor(t Type) (string, error) {
	subject, ok := subjects[t]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
	return subject, nil
}

func viewFrom(n Notification, at time.Time) renderView {
	view := renderView{Timestamp: at}
	view.Subject, _ = subjectFor(n.Type)
	if name, ok := n.Data["product_name"].(string); ok {
		view.ProductName = name
	}
	if message, ok := n.Data["message"].(string); ok {
		view.Message = message
	}
	if stock, ok := n.Data["current_stock"].(int); ok {
		view.CurrentStock = stock
		view.HasStock = true
	}
	return view
}

func renderNotification(n Notification, at time.Time) (string, string, error) {
	subject, err := subjectFor(n.Type)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, viewFrom(n, at)); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

func renderDigest(entries []queueEntry) (string, string, error) {
	views := make([]renderView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, viewFrom(entry.Notification, entry.EnqueuedAt))
	}
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, struct{ Entries []renderView }{views}); err != nil {
		return "", "", err
	}
	subject := fmt.Sprintf("Stock notifications digest (%d)", len(entries))
	return subject, buf.String(), nil
}
