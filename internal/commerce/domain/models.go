package domain

import "time"

// Product is one stock-managed item on the commerce side. ManageStock
// carries no column default: gorm omits zero-valued fields that have a
// default tag on insert, which would persist false as true.
type Product struct {
	ID            int64   `gorm:"primaryKey"`
	SKU           string  `gorm:"type:text;not null;uniqueIndex"`
	Name          string  `gorm:"type:text;not null"`
	StockQuantity int     `gorm:"not null;default:0"`
	ManageStock   bool    `gorm:"not null"`
	RemoteItemID  *string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// Order is a completed commerce order handed to the sync engine.
type Order struct {
	ID    int64       `json:"id"`
	Items []OrderItem `json:"items"`
}

// OrderItem is one line of a completed order.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}
