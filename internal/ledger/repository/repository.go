package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/smallbiznis/stocksync/internal/ledger/domain"
	"gorm.io/gorm"
)

// Repository is the gorm-backed stock ledger store.
type Repository struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func New(db *gorm.DB, genID *snowflake.Node) *Repository {
	return &Repository{db: db, genID: genID}
}

func (r *Repository) FindByProductID(ctx context.Context, productID int64) (*ledgerdomain.StockRecord, error) {
	var record ledgerdomain.StockRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledgerdomain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListLinked returns one page of records that carry a remote item id,
// in stable product order so overlapping runs walk the same sequence.
func (r *Repository) ListLinked(ctx context.Context, page, size int) ([]ledgerdomain.StockRecord, error) {
	if page < 1 {
		page = 1
	}
	var records []ledgerdomain.StockRecord
	err := r.db.WithContext(ctx).
		Where("remote_item_id IS NOT NULL AND remote_item_id <> ''").
		Order("product_id").
		Limit(size).
		Offset((page - 1) * size).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) Upsert(ctx context.Context, record *ledgerdomain.StockRecord) error {
	existing, err := r.FindByProductID(ctx, record.ProductID)
	if errors.Is(err, ledgerdomain.ErrRecordNotFound) {
		if record.ID == 0 {
			record.ID = r.genID.Generate()
		}
		return r.db.WithContext(ctx).Create(record).Error
	}
	if err != nil {
		return err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(record).Error
}

// ApplyQuantity performs a compare-and-swap on the local quantity so a
// concurrent job that already moved the record does not get overwritten
// with a stale decision.
func (r *Repository) ApplyQuantity(ctx context.Context, update ledgerdomain.QuantityUpdate) error {
	res := r.db.WithContext(ctx).
		Model(&ledgerdomain.StockRecord{}).
		Where("product_id = ? AND local_quantity = ?", update.ProductID, update.ExpectedLocal).
		Updates(map[string]any{
			"local_quantity":  update.LocalQuantity,
			"remote_quantity": update.RemoteQuantity,
			"sync_status":     update.Status,
			"last_sync_at":    update.SyncedAt,
			"updated_at":      update.SyncedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByProductID(ctx, update.ProductID); err != nil {
			return err
		}
		return ledgerdomain.ErrStaleQuantity
	}
	return nil
}

func (r *Repository) MarkSyncStatus(ctx context.Context, productID int64, status ledgerdomain.SyncStatus, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&ledgerdomain.StockRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"sync_status": status,
			"updated_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledgerdomain.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) AppendChange(ctx context.Context, entry *ledgerdomain.StockChangeEntry) error {
	if entry.ID == 0 {
		entry.ID = r.genID.Generate()
	}
	if entry.Actor == "" {
		entry.Actor = "system"
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListChanges(ctx context.Context, productID int64, limit int) ([]ledgerdomain.StockChangeEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if productID != 0 {
		query = query.Where("product_id = ?", productID)
	}
	var entries []ledgerdomain.StockChangeEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) PurgeChangesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&ledgerdomain.StockChangeEntry{})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindAlert(ctx context.Context, productID int64, alertType ledgerdomain.AlertType) (*ledgerdomain.StockAlert, error) {
	var alert ledgerdomain.StockAlert
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND alert_type = ?", productID, alertType).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledgerdomain.ErrAlertNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *Repository) SaveAlert(ctx context.Context, alert *ledgerdomain.StockAlert) error {
	if alert.ID == 0 {
		alert.ID = r.genID.Generate()
		return r.db.WithContext(ctx).Create(alert).Error
	}
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *Repository) MarkNotified(ctx context.Context, alertID snowflake.ID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&ledgerdomain.StockAlert{}).
		Where("id = ?", alertID).
		Updates(map[string]any{
			"notification_sent_at": at,
			"updated_at":           at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledgerdomain.ErrAlertNotFound
	}
	return nil
}

func (r *Repository) DismissAlert(ctx context.Context, alertID snowflake.ID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&ledgerdomain.StockAlert{}).
		Where("id = ?", alertID).
		Updates(map[string]any{
			"status":     ledgerdomain.AlertStatusDismissed,
			"updated_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledgerdomain.ErrAlertNotFound
	}
	return nil
}

func (r *Repository) ListAlerts(ctx context.Context, status ledgerdomain.AlertStatus, limit int) ([]ledgerdomain.StockAlert, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.WithContext(ctx).Order("last_triggered_at DESC").Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var alerts []ledgerdomain.StockAlert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}
