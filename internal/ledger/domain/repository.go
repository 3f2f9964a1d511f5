package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrRecordNotFound = errors.New("stock_record_not_found")
	ErrStaleQuantity  = errors.New("stale_quantity")
	ErrAlertNotFound  = errors.New("stock_alert_not_found")
)

// QuantityUpdate applies the outcome of one reconciliation to a record.
// ExpectedLocal is the quantity observed before the decision; the write
// fails with ErrStaleQuantity when another job got there first.
type QuantityUpdate struct {
	ProductID      int64
	ExpectedLocal  int
	LocalQuantity  int
	RemoteQuantity int
	Status         SyncStatus
	SyncedAt       time.Time
}

// Repository is the persistence boundary for stock records, the change
// log and stock alerts.
type Repository interface {
	FindByProductID(ctx context.Context, productID int64) (*StockRecord, error)
	ListLinked(ctx context.Context, page, size int) ([]StockRecord, error)
	Upsert(ctx context.Context, record *StockRecord) error

	ApplyQuantity(ctx context.Context, update QuantityUpdate) error
	MarkSyncStatus(ctx context.Context, productID int64, status SyncStatus, at time.Time) error

	AppendChange(ctx context.Context, entry *StockChangeEntry) error
	ListChanges(ctx context.Context, productID int64, limit int) ([]StockChangeEntry, error)
	PurgeChangesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	FindAlert(ctx context.Context, productID int64, alertType AlertType) (*StockAlert, error)
	SaveAlert(ctx context.Context, alert *StockAlert) error
	MarkNotified(ctx context.Context, alertID snowflake.ID, at time.Time) error
	DismissAlert(ctx context.Context, alertID snowflake.ID, at time.Time) error
	ListAlerts(ctx context.Context, status AlertStatus, limit int) ([]StockAlert, error)
}
