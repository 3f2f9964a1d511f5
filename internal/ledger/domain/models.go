package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SyncStatus tracks the reconciliation state of a stock record.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusError   SyncStatus = "error"
)

// ChangeSource identifies which ledger originated a quantity transition.
type ChangeSource string

const (
	SourceLocal  ChangeSource = "local"
	SourceRemote ChangeSource = "remote"
)

// AlertType classifies a threshold breach.
type AlertType string

const (
	AlertTypeLowStock   AlertType = "low_stock"
	AlertTypeOutOfStock AlertType = "out_of_stock"
)

// AlertStatus is the lifecycle state of a stock alert.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "active"
	AlertStatusTriggered AlertStatus = "triggered"
	AlertStatusDismissed AlertStatus = "dismissed"
)

// StockRecord is the last-known view of one managed product across both
// ledgers. A nil RemoteItemID means the product is not linked to the
// remote service and is never pushed or pulled.
type StockRecord struct {
	ID                snowflake.ID `gorm:"primaryKey"`
	ProductID         int64        `gorm:"not null;uniqueIndex"`
	RemoteItemID      *string      `gorm:"type:text;index"`
	LocalQuantity     int          `gorm:"not null;default:0"`
	RemoteQuantity    int          `gorm:"not null;default:0"`
	SyncStatus        SyncStatus   `gorm:"type:text;not null;default:'pending'"`
	ThresholdOverride *int         `gorm:"column:threshold_override"`
	LastSyncAt        *time.Time
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StockRecord) TableName() string { return "stock_records" }

// Linked reports whether the record can participate in remote sync.
func (r StockRecord) Linked() bool {
	return r.RemoteItemID != nil && *r.RemoteItemID != ""
}

// StockChangeEntry is one immutable row in the quantity transition log.
// Rows are never updated; retention purge is the only deletion.
type StockChangeEntry struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	ProductID   int64        `gorm:"not null;index:idx_stock_changes_product_created"`
	OldQuantity int          `gorm:"not null"`
	NewQuantity int          `gorm:"not null"`
	Source      ChangeSource `gorm:"type:text;not null"`
	Actor       string       `gorm:"type:text;not null;default:'system'"`
	CreatedAt   time.Time    `gorm:"not null;index:idx_stock_changes_product_created;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StockChangeEntry) TableName() string { return "stock_changes" }

// StockAlert records a threshold breach for one (product, type) pair.
// At most one non-dismissed alert exists per pair; re-detection updates
// the existing row instead of inserting a duplicate.
type StockAlert struct {
	ID                 snowflake.ID `gorm:"primaryKey"`
	ProductID          int64        `gorm:"not null;uniqueIndex:ux_stock_alerts_product_type,priority:1"`
	AlertType          AlertType    `gorm:"type:text;not null;uniqueIndex:ux_stock_alerts_product_type,priority:2"`
	Threshold          int          `gorm:"not null"`
	Status             AlertStatus  `gorm:"type:text;not null;default:'active'"`
	LastTriggeredAt    time.Time    `gorm:"not null"`
	NotificationSentAt *time.Time
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StockAlert) TableName() string { return "stock_alerts" }
