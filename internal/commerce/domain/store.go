package domain

import (
	"context"
	"errors"
)

var ErrProductNotFound = errors.New("product_not_found")

// Store is the commerce-side collaborator boundary. The sync engine
// never touches the products table directly.
type Store interface {
	// ManagedProducts returns one page of stock-managed products in
	// stable order. Pages are 1-based.
	ManagedProducts(ctx context.Context, page, size int) ([]Product, error)
	FindProduct(ctx context.Context, productID int64) (*Product, error)
	StockQuantity(ctx context.Context, productID int64) (int, error)
	SetStockQuantity(ctx context.Context, productID int64, quantity int) error
}
