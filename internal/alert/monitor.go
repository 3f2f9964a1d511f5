// Package alert watches observed stock levels and raises threshold
// breach alerts with notification de-duplication.
package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/stocksync/internal/cache"
	"github.com/smallbiznis/stocksync/internal/clock"
	"github.com/smallbiznis/stocksync/internal/events"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	"github.com/smallbiznis/stocksync/internal/notify"
	"github.com/smallbiznis/stocksync/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config controls threshold resolution and notification cooldown.
type Config struct {
	DefaultThreshold int
	Cooldown         time.Duration
	Recipients       []string
}

func (c Config) withDefaults() Config {
	if c.DefaultThreshold <= 0 {
		c.DefaultThreshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 24 * time.Hour
	}
	return c
}

type cooldownKey struct {
	ProductID int64
	AlertType ledgerdomain.AlertType
}

// Monitor evaluates stock observations against thresholds. It only
// reads stock records and owns all writes to stock alerts.
type Monitor struct {
	cfg        Config
	repo       ledgerdomain.Repository
	dispatcher *notify.Dispatcher
	outbox     *events.Outbox
	clock      clock.Clock
	log        *zap.Logger
	metrics    *metrics.SyncMetrics

	// Fast-path suppression in front of notification_sent_at; entries
	// expire with the cooldown so the column stays authoritative.
	cooldowns *cache.TTLCache[cooldownKey, time.Time]

	// One replenish notice per recovery. A fresh breach clears the
	// marker so the next recovery reports again.
	noticed *cache.TTLCache[int64, time.Time]
}

// Params collects the monitor dependencies.
type Params struct {
	fx.In

	Config     Config
	Repo       ledgerdomain.Repository
	Dispatcher *notify.Dispatcher
	Outbox     *events.Outbox `optional:"true"`
	Clock      clock.Clock
	Log        *zap.Logger
}

func NewMonitor(p Params) *Monitor {
	return &Monitor{
		cfg:        p.Config.withDefaults(),
		repo:       p.Repo,
		dispatcher: p.Dispatcher,
		outbox:     p.Outbox,
		clock:      p.Clock,
		log:        p.Log.Named("alert.monitor"),
		metrics:    metrics.Sync(),
		cooldowns:  cache.New[cooldownKey, time.Time](),
		noticed:    cache.New[int64, time.Time](),
	}
}

// Evaluate inspects one observed stock level. Levels above threshold
// have no side effect beyond an optional replenish notice; levels at or
// below threshold upsert the alert and attempt one notification.
func (m *Monitor) Evaluate(ctx context.Context, productID int64, productName string, quantity int) {
	threshold := m.threshold(ctx, productID)

	switch {
	case quantity <= 0:
		m.raise(ctx, productID, productName, quantity, ledgerdomain.AlertTypeOutOfStock, threshold)
	case quantity <= threshold:
		m.raise(ctx, productID, productName, quantity, ledgerdomain.AlertTypeLowStock, threshold)
	default:
		m.noticeReplenished(ctx, productID, productName, quantity)
	}
}

func (m *Monitor) threshold(ctx context.Context, productID int64) int {
	record, err := m.repo.FindByProductID(ctx, productID)
	if err == nil && record.ThresholdOverride != nil && *record.ThresholdOverride > 0 {
		return *record.ThresholdOverride
	}
	return m.cfg.DefaultThreshold
}

func (m *Monitor) raise(ctx context.Context, productID int64, productName string, quantity int, alertType ledgerdomain.AlertType, threshold int) {
	now := m.clock.Now()

	alert, err := m.repo.FindAlert(ctx, productID, alertType)
	switch {
	case errors.Is(err, ledgerdomain.ErrAlertNotFound):
		alert = &ledgerdomain.StockAlert{
			ProductID:       productID,
			AlertType:       alertType,
			Threshold:       threshold,
			Status:          ledgerdomain.AlertStatusActive,
			LastTriggeredAt: now,
		}
	case err != nil:
		m.log.Error("load alert failed",
			zap.Int64("product_id", productID),
			zap.String("alert_type", string(alertType)),
			zap.Error(err))
		return
	default:
		// Re-detection updates the existing row; dismissed alerts
		// re-activate on a fresh breach.
		alert.Status = ledgerdomain.AlertStatusActive
		alert.Threshold = threshold
		alert.LastTriggeredAt = now
	}

	m.noticed.Delete(productID)

	if err := m.repo.SaveAlert(ctx, alert); err != nil {
		m.log.Error("save alert failed",
			zap.Int64("product_id", productID),
			zap.String("alert_type", string(alertType)),
			zap.Error(err))
		return
	}
	m.metrics.IncStockAlert(string(alertType))
	m.publishBreach(ctx, productID, productName, quantity, alertType, threshold)
	m.log.Warn("stock threshold breached",
		zap.Int64("product_id", productID),
		zap.String("product_name", productName),
		zap.String("alert_type", string(alertType)),
		zap.Int("quantity", quantity),
		zap.Int("threshold", threshold))

	if m.suppressed(alert, now) {
		m.metrics.IncNotification("suppressed")
		m.log.Debug("notification within cooldown",
			zap.Int64("product_id", productID),
			zap.String("alert_type", string(alertType)))
		return
	}

	if m.notifyBreach(ctx, productID, productName, quantity, alertType, threshold) {
		m.cooldowns.Set(cooldownKey{productID, alertType}, now, m.cfg.Cooldown)
		if err := m.repo.MarkNotified(ctx, alert.ID, now); err != nil {
			m.log.Error("mark notified failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
}

func (m *Monitor) suppressed(alert *ledgerdomain.StockAlert, now time.Time) bool {
	key := cooldownKey{alert.ProductID, alert.AlertType}
	if sentAt, hit := m.cooldowns.Get(key); hit && now.Sub(sentAt) < m.cfg.Cooldown {
		return true
	}
	return alert.NotificationSentAt != nil && now.Sub(*alert.NotificationSentAt) < m.cfg.Cooldown
}

func (m *Monitor) publishBreach(ctx context.Context, productID int64, productName string, quantity int, alertType ledgerdomain.AlertType, threshold int) {
	if m.outbox == nil {
		return
	}
	eventType := events.EventStockLow
	if alertType == ledgerdomain.AlertTypeOutOfStock {
		eventType = events.EventStockOut
	}
	err := m.outbox.Publish(ctx, events.Event{
		Type: eventType,
		Payload: map[string]any{
			"product_id":   productID,
			"product_name": productName,
			"quantity":     quantity,
			"threshold":    threshold,
		},
	})
	if err != nil {
		m.log.Error("publish breach event failed", zap.Int64("product_id", productID), zap.Error(err))
	}
}

func (m *Monitor) notifyBreach(ctx context.Context, productID int64, productName string, quantity int, alertType ledgerdomain.AlertType, threshold int) bool {
	notificationType := notify.TypeLowStock
	message := fmt.Sprintf("Stock for %s dropped to %d (threshold %d).", productName, quantity, threshold)
	if alertType == ledgerdomain.AlertTypeOutOfStock {
		notificationType = notify.TypeOutOfStock
		message = fmt.Sprintf("%s is out of stock.", productName)
	}

	attempted := false
	for _, recipient := range m.cfg.Recipients {
		err := m.dispatcher.Send(ctx, notify.Notification{
			Type:      notificationType,
			Recipient: recipient,
			Data: map[string]any{
				"product_id":    productID,
				"product_name":  productName,
				"message":       message,
				"current_stock": quantity,
			},
		})
		if err == nil {
			attempted = true
		}
	}
	return attempted
}

// noticeReplenished reports a recovery above threshold while an alert is
// still active. The alert itself stays active; dismissal is manual. The
// notice fires once per recovery, not on every healthy evaluation.
func (m *Monitor) noticeReplenished(ctx context.Context, productID int64, productName string, quantity int) {
	if !m.activeAlertExists(ctx, productID) {
		return
	}
	if _, hit := m.noticed.Get(productID); hit {
		return
	}

	if m.outbox != nil {
		err := m.outbox.Publish(ctx, events.Event{
			Type: events.EventStockReplenished,
			Payload: map[string]any{
				"product_id":   productID,
				"product_name": productName,
				"quantity":     quantity,
			},
		})
		if err != nil {
			m.log.Error("publish replenish event failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}

	for _, recipient := range m.cfg.Recipients {
		_ = m.dispatcher.Send(ctx, notify.Notification{
			Type:      notify.TypeStockReplenished,
			Recipient: recipient,
			Data: map[string]any{
				"product_id":    productID,
				"product_name":  productName,
				"message":       fmt.Sprintf("Stock for %s recovered to %d.", productName, quantity),
				"current_stock": quantity,
			},
		})
	}
	m.noticed.Set(productID, m.clock.Now(), 0)
}

func (m *Monitor) activeAlertExists(ctx context.Context, productID int64) bool {
	for _, alertType := range []ledgerdomain.AlertType{ledgerdomain.AlertTypeLowStock, ledgerdomain.AlertTypeOutOfStock} {
		alert, err := m.repo.FindAlert(ctx, productID, alertType)
		if err == nil && alert.Status == ledgerdomain.AlertStatusActive {
			return true
		}
	}
	return false
}

// Dismiss marks an alert dismissed. Exposed for the admin surface; the
// monitor never dismisses on its own.
func (m *Monitor) Dismiss(ctx context.Context, alertID snowflake.ID) error {
	return m.repo.DismissAlert(ctx, alertID, m.clock.Now())
}
