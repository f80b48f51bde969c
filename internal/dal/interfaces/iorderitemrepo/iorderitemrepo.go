package iorderitemrepo

import (
	"context"

	"github.com/corray333/storefront/internal/service/models/orderitem"
)

// IOrderItemRepository defines the interface for order item persistence.
type IOrderItemRepository interface {
	// BulkInsert stores the snapshot items of an order
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error)

	// Query retrieves order items based on filter criteria
	Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error)
}
