package domain

import (
	"context"
	"errors"
	"time"

	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
)

// Trigger identifies what started a full sync run.
type Trigger string

const (
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
)

var (
	// ErrNotLinked marks a product without a remote item id; sync for
	// it is a logged no-op, never a remote call.
	ErrNotLinked = errors.New("product_not_linked")
	// ErrSyncFailed wraps remote inventory call failures during an
	// on-demand sync.
	ErrSyncFailed = errors.New("sync_failed")
)

// RunSummary reports the outcome of one full sync pass. Per-item
// failures are counted here and surfaced through the log, never
// returned as errors. Skipped counts records a concurrent writer moved
// mid-pass; the later write wins and the record is left alone.
type RunSummary struct {
	Trigger    Trigger
	Processed  int
	Updated    int
	Unchanged  int
	Skipped    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Service is the stock sync engine. It exclusively owns writes to the
// stock ledger's quantity and sync status fields.
type Service interface {
	// SyncAll walks all linked records in fixed-size batches, pulling
	// remote quantities. Scheduled pulls are remote-authoritative.
	SyncAll(ctx context.Context, trigger Trigger) (RunSummary, error)
	// SyncProduct reconciles a single product under the configured
	// conflict policy with the local side as the triggering source.
	SyncProduct(ctx context.Context, productID int64) error
	// HandleStockChange reacts to a local quantity mutation and pushes
	// it to the remote service unless direction excludes local->remote.
	HandleStockChange(ctx context.Context, productID int64, newQuantity int) error
	// HandleOrderCompleted syncs every managed line item of a
	// completed order.
	HandleOrderCompleted(ctx context.Context, order commercedomain.Order) error
}
