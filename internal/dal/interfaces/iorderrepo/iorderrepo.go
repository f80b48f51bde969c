package iorderrepo

import (
	"context"

	"github.com/corray333/storefront/internal/service/models/order"
)

// IOrderRepository defines the interface for order persistence.
type IOrderRepository interface {
	// Insert stores a new order and returns it with its assigned id
	Insert(ctx context.Context, o order.Order) (order.Order, error)

	// Query retrieves orders based on filter criteria
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)

	// GetByProviderSessionID returns the order created for a provider
	// checkout session, or nil when none exists
	GetByProviderSessionID(ctx context.Context, sessionID string) (*order.Order, error)
}
