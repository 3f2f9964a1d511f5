package store

import (
	"context"
	"errors"

	commercedomain "github.com/smallbiznis/stocksync/internal/commerce/domain"
	"gorm.io/gorm"
)

// Store is the gorm-backed commerce product store.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ManagedProducts(ctx context.Context, page, size int) ([]commercedomain.Product, error) {
	if page < 1 {
		page = 1
	}
	var products []commercedomain.Product
	err := s.db.WithContext(ctx).
		Where("manage_stock = ?", true).
		Order("id").
		Limit(size).
		Offset((page - 1) * size).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) FindProduct(ctx context.Context, productID int64) (*commercedomain.Product, error) {
	var product commercedomain.Product
	err := s.db.WithContext(ctx).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, commercedomain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) StockQuantity(ctx context.Context, productID int64) (int, error) {
	product, err := s.FindProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	return product.StockQuantity, nil
}

func (s *Store) SetStockQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	res := s.db.WithContext(ctx).
		Model(&commercedomain.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return commercedomain.ErrProductNotFound
	}
	return nil
}
