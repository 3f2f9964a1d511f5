package events

// Stock event types published to the event stream.
const (
	EventStockChanged     = "stock.changed"
	EventStockLow         = "stock.low"
	EventStockOut         = "stock.out"
	EventStockReplenished = "stock.replenished"
	EventSyncCompleted    = "sync.completed"
	EventSyncFailed       = "sync.failed"
)

// StockChangedPayload captures one quantity transition.
type StockChangedPayload struct {
	ProductID   int64  `json:"product_id"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
	Source      string `json:"source"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p StockChangedPayload) ToMap() map[string]any {
	return map[string]any{
		"product_id":   p.ProductID,
		"old_quantity": p.OldQuantity,
		"new_quantity": p.NewQuantity,
		"source":       p.Source,
	}
}

// SyncRunPayload summarizes one full sync run.
type SyncRunPayload struct {
	Trigger   string `json:"trigger"`
	Processed int    `json:"processed"`
	Updated   int    `json:"updated"`
	Failed    int    `json:"failed"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p SyncRunPayload) ToMap() map[string]any {
	return map[string]any{
		"trigger":   p.Trigger,
		"processed": p.Processed,
		"updated":   p.Updated,
		"failed":    p.Failed,
	}
}
