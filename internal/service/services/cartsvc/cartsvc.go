package cartsvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/storefront/internal/dal/interfaces/icartrepo"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// CartService manages server-persisted carts. The cart is a convenience
// store only; checkout takes its lines as explicit input and never reads the
// cart behind the customer's back.
type CartService struct {
	cartRepo icartrepo.ICartRepository
	maxAge   time.Duration
}

// option is a function that configures the CartService.
type option func(*CartService)

// MustNewCartService creates a new CartService.
func MustNewCartService(opts ...option) *CartService {
	maxAge := viper.GetDuration("cart.max_age")
	if maxAge == 0 {
		maxAge = 30 * 24 * time.Hour
	}

	s := &CartService{
		maxAge: maxAge,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithCartRepository sets the cart repository for the CartService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCartRepository(repo icartrepo.ICartRepository) option {
	return func(s *CartService) {
		s.cartRepo = repo
	}
}

// Get returns the customer's cart lines.
func (s *CartService) Get(ctx context.Context, customerID int64) ([]cart.Line, error) {
	return s.cartRepo.Get(ctx, customerID)
}

// Replace swaps the customer's cart for the given lines. An empty slice
// clears the cart.
func (s *CartService) Replace(ctx context.Context, customerID int64, lines []cart.Line) error {
	ctx, span := otel.Tracer("cartsvc").Start(ctx, "CartService.Replace")
	defer span.End()

	seen := make(map[int64]struct{}, len(lines))
	now := time.Now()
	for i, line := range lines {
		if line.ProductID <= 0 {
			return errs.Validation("productId must be positive")
		}
		if line.Quantity <= 0 {
			return errs.Validation("quantity must be positive for product %d", line.ProductID)
		}
		if _, ok := seen[line.ProductID]; ok {
			return errs.Validation("duplicate line for product %d", line.ProductID)
		}
		seen[line.ProductID] = struct{}{}

		lines[i].CustomerID = customerID
		lines[i].UpdatedAt = now
	}

	if len(lines) == 0 {
		return s.cartRepo.Clear(ctx, customerID)
	}

	return s.cartRepo.Replace(ctx, customerID, lines)
}

// Clear removes the customer's cart.
func (s *CartService) Clear(ctx context.Context, customerID int64) error {
	return s.cartRepo.Clear(ctx, customerID)
}

// SweepStale removes cart lines that have not been touched within the
// configured max age.
func (s *CartService) SweepStale(ctx context.Context) error {
	removed, err := s.cartRepo.DeleteStale(ctx, time.Now().Add(-s.maxAge))
	if err != nil {
		return err
	}

	if removed > 0 {
		slog.Info("swept stale cart lines", "removed", removed)
	}

	return nil
}
