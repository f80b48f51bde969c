package iproductrepo

import (
	"context"

	"github.com/corray333/storefront/internal/service/models/product"
)

// IProductRepository defines the interface for product read and stock
// mutation operations.
type IProductRepository interface {
	// GetByIDs fetches products by id, read-only
	GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error)

	// GetByIDsForUpdate fetches products by id with row locks held for the
	// duration of the surrounding transaction
	GetByIDsForUpdate(ctx context.Context, ids []int64) ([]product.Product, error)

	// List returns products for the public listing
	List(ctx context.Context, limit, offset int) ([]product.Product, error)

	// DecrementStock atomically subtracts quantity from a product's stock,
	// refusing to go below zero; returns the number of rows updated
	DecrementStock(ctx context.Context, productID int64, quantity int) (int64, error)
}
