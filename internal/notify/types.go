// Package notify renders and delivers stock notifications, either
// immediately or batched into per-recipient digests.
package notify

import (
	"errors"
	"time"
)

// Type identifies a notification template.
type Type string

const (
	TypeLowStock         Type = "low_stock"
	TypeOutOfStock       Type = "out_of_stock"
	TypeStockReplenished Type = "stock_replenished"
	TypeSyncFailed       Type = "sync_failed"
)

var (
	ErrUnknownType = errors.New("unknown_notification_type")
	ErrMailFailed  = errors.New("mail_transport_failed")
)

// Notification is one deliverable event.
type Notification struct {
	Type      Type
	Recipient string
	Data      map[string]any
}

// queueEntry is an enqueued notification waiting for the batch flush.
type queueEntry struct {
	Notification
	EnqueuedAt time.Time
}

// adminOnly reports whether the type requires admin notifications to be
// enabled. Low/out-of-stock alerts are always eligible when email is on.
func (t Type) adminOnly() bool {
	return t == TypeStockReplenished || t == TypeSyncFailed
}
