package productsvc

import (
	"context"

	"github.com/corray333/storefront/internal/service/models/product"
)

// productRepository is the read-only product access the listing needs.
type productRepository interface {
	List(ctx context.Context, limit, offset int) ([]product.Product, error)
}

// ProductService serves the public product listing.
type ProductService struct {
	productRepo productRepository
}

// option is a function that configures the ProductService.
type option func(*ProductService)

// MustNewProductService creates a new ProductService.
func MustNewProductService(opts ...option) *ProductService {
	s := &ProductService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithProductRepository sets the product repository for the ProductService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo productRepository) option {
	return func(s *ProductService) {
		s.productRepo = repo
	}
}

// List returns a page of products.
func (s *ProductService) List(ctx context.Context, limit, offset int) ([]product.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.productRepo.List(ctx, limit, offset)
}
