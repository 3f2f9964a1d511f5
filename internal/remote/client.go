// Package remote speaks to the remote inventory service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/stocksync/internal/observability/tracing"
)

var (
	ErrItemNotFound   = errors.New("remote_item_not_found")
	ErrUnavailable    = errors.New("remote_unavailable")
	ErrInvalidPayload = errors.New("remote_invalid_payload")
)

// Config configures the remote inventory client.
type Config struct {
	BaseURL string
	OrgID   string
	Token   string
	Timeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	return c
}

// InventoryClient reads and writes item stock on the remote service.
type InventoryClient interface {
	GetItemStock(ctx context.Context, itemID string) (int, error)
	PutItemStock(ctx context.Context, itemID string, quantity int) error
}

// Client is the HTTP implementation of InventoryClient.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: tracing.WrapHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
}

type itemResponse struct {
	Item *struct {
		ItemID      string `json:"item_id"`
		StockOnHand *int   `json:"stock_on_hand"`
	} `json:"item"`
}

// GetItemStock fetches the current remote quantity for one item. A
// payload without a stock figure is reported as ErrInvalidPayload so
// callers can isolate the item without aborting their batch.
func (c *Client) GetItemStock(ctx context.Context, itemID string) (int, error) {
	body, err := c.do(ctx, http.MethodGet, c.itemURL(itemID), nil)
	if err != nil {
		return 0, err
	}

	var resp itemResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if resp.Item == nil || resp.Item.StockOnHand == nil {
		return 0, fmt.Errorf("%w: missing stock_on_hand", ErrInvalidPayload)
	}
	return *resp.Item.StockOnHand, nil
}

// PutItemStock overwrites the remote quantity for one item.
func (c *Client) PutItemStock(ctx context.Context, itemID string, quantity int) error {
	payload, err := json.Marshal(map[string]any{"stock_on_hand": quantity})
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPut, c.itemURL(itemID), payload)
	return err
}

func (c *Client) itemURL(itemID string) string {
	endpoint := c.cfg.BaseURL + "/items/" + url.PathEscape(itemID)
	if c.cfg.OrgID != "" {
		endpoint += "?organization_id=" + url.QueryEscape(c.cfg.OrgID)
	}
	return endpoint
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Zoho-oauthtoken "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrItemNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return body, nil
}
