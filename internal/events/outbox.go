package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event describes a stock event to store in the outbox.
type Event struct {
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// StockEvent is the persisted outbox row. Rows are written in the same
// transaction as the ledger update and drained by the publisher worker.
type StockEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	EventType string            `gorm:"type:text;not null;index"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	DedupeKey *string           `gorm:"type:text;uniqueIndex"`
	Published bool              `gorm:"not null;default:false;index"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (StockEvent) TableName() string { return "stock_events" }

// Outbox inserts stock events into the stock_events table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return errors.New("missing_event_type")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	row := StockEvent{
		ID:        o.genID.Generate(),
		EventType: name,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if dedupe := strings.TrimSpace(event.DedupeKey); dedupe != "" {
		row.DedupeKey = &dedupe
	}

	err := db.WithContext(ctx).Create(&row).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

// Pending returns up to limit unpublished events in insertion order.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]StockEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []StockEvent
	err := o.db.WithContext(ctx).
		Where("published = ?", false).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkPublished flags a drained event so it is not delivered twice.
func (o *Outbox) MarkPublished(ctx context.Context, id snowflake.ID) error {
	return o.db.WithContext(ctx).
		Model(&StockEvent{}).
		Where("id = ?", id).
		Update("published", true).Error
}
