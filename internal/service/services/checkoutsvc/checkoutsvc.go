package checkoutsvc

import (
	"context"
	"fmt"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/product"
	"github.com/corray333/storefront/internal/service/models/session"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

// productRepository is the read-only product access the checkout flow needs.
type productRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error)
}

// paymentClient creates provider-hosted checkout sessions.
type paymentClient interface {
	CreateSession(ctx context.Context, req payment.CreateSessionRequest) (*payment.Session, error)
}

// CheckoutService validates a cart, checks stock, prices the lines and
// creates a provider checkout session. It never writes to the local store:
// inventory and orders change only when the provider confirms payment.
type CheckoutService struct {
	productRepo productRepository
	payment     paymentClient
	currency    currency.Currency
	baseURL     string
}

// option is a function that configures the CheckoutService.
type option func(*CheckoutService)

// MustNewCheckoutService creates a new CheckoutService.
func MustNewCheckoutService(opts ...option) *CheckoutService {
	cur, err := currency.ParseCurrency(viper.GetString("checkout.currency"))
	if err != nil {
		cur = currency.CurrencyUSD
	}

	s := &CheckoutService{
		currency: cur,
		baseURL:  viper.GetString("checkout.base_url"),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithProductRepository sets the product repository for the CheckoutService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo productRepository) option {
	return func(s *CheckoutService) {
		s.productRepo = repo
	}
}

// WithPaymentClient sets the payment provider client for the CheckoutService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPaymentClient(client paymentClient) option {
	return func(s *CheckoutService) {
		s.payment = client
	}
}

// CreateSessionRequest is the checkout input.
type CreateSessionRequest struct {
	Items           []cart.LineRequest
	SuccessURL      string
	CancelURL       string
	ShippingAddress string
}

// CreateSession runs the whole checkout flow for an authenticated customer.
// Validation and stock checks are all-or-nothing: no session is created for a
// partially satisfiable cart.
func (s *CheckoutService) CreateSession(
	ctx context.Context,
	identity session.Identity,
	req CreateSessionRequest,
) (*payment.Session, error) {
	ctx, span := otel.Tracer("checkoutsvc").Start(ctx, "CheckoutService.CreateSession")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	if err := validateStock(byID, req.Items); err != nil {
		return nil, err
	}

	lineItems, metaItems, _ := priceLines(byID, req.Items)

	metadata, err := payment.Metadata{
		CustomerID:      identity.UserID,
		CustomerEmail:   identity.Email,
		ShippingAddress: req.ShippingAddress,
		Currency:        s.currency.String(),
		Items:           metaItems,
	}.Encode()
	if err != nil {
		return nil, err
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = s.baseURL + "/checkout/success"
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = s.baseURL + "/checkout/cancel"
	}

	return s.payment.CreateSession(ctx, payment.CreateSessionRequest{
		Currency:   s.currency.String(),
		LineItems:  lineItems,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
		Metadata:   metadata,
	})
}

// validateRequest rejects malformed input before any database read.
func validateRequest(req CreateSessionRequest) error {
	if len(req.Items) == 0 {
		return errs.Validation("items must not be empty")
	}

	seen := make(map[int64]struct{}, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return errs.Validation("productId must be positive")
		}
		if item.Quantity <= 0 {
			return errs.Validation("quantity must be positive for product %d", item.ProductID)
		}
		if _, ok := seen[item.ProductID]; ok {
			return errs.Validation("duplicate line for product %d", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}

	return nil
}

// validateStock checks every line against current inventory. No partial
// success: the first failing line rejects the whole checkout attempt.
func validateStock(byID map[int64]product.Product, items []cart.LineRequest) error {
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return fmt.Errorf("%w: product %d", errs.ErrProductNotFound, item.ProductID)
		}
		if item.Quantity > p.Stock {
			return &errs.InsufficientStockError{
				ProductID: p.ID,
				Requested: item.Quantity,
				Available: p.Stock,
			}
		}
	}

	return nil
}
