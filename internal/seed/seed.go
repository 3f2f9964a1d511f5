// Package seed bootstraps a demo product catalog for local development.
package seed

import (
	"context"
	"errors"
	"time"

	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
	"gorm.io/gorm"
)

type demoProduct struct {
	SKU          string
	Name         string
	Quantity     int
	RemoteItemID string
}

var demoCatalog = []demoProduct{
	{SKU: "DEMO-TSHIRT", Name: "Demo T-Shirt", Quantity: 42, RemoteItemID: "zi-demo-tshirt"},
	{SKU: "DEMO-MUG", Name: "Demo Mug", Quantity: 7, RemoteItemID: "zi-demo-mug"},
	{SKU: "DEMO-POSTER", Name: "Demo Poster", Quantity: 3, RemoteItemID: ""},
}

// EnsureDemoCatalog inserts the demo products once. Existing SKUs are
// left untouched so local quantities survive restarts.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, demo := range demoCatalog {
			var existing commercedomain.Product
			err := tx.WithContext(ctx).Where("sku = ?", demo.SKU).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			product := commercedomain.Product{
				SKU:           demo.SKU,
				Name:          demo.Name,
				StockQuantity: demo.Quantity,
				ManageStock:   true,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if demo.RemoteItemID != "" {
				remoteItemID := demo.RemoteItemID
				product.RemoteItemID = &remoteItemID
			}
			if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
