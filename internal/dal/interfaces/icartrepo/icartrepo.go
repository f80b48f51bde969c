package icartrepo

import (
	"context"
	"time"

	"github.com/corray333/storefront/internal/service/models/cart"
)

// ICartRepository defines the interface for server-persisted carts.
type ICartRepository interface {
	// Get returns the customer's cart lines
	Get(ctx context.Context, customerID int64) ([]cart.Line, error)

	// Replace swaps the customer's cart for the given lines atomically
	Replace(ctx context.Context, customerID int64, lines []cart.Line) error

	// Clear removes the customer's cart
	Clear(ctx context.Context, customerID int64) error

	// DeleteStale removes cart lines not touched since the cutoff and
	// returns how many were removed
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
