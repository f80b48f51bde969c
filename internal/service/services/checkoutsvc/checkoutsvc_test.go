package checkoutsvc

import (
	"context"
	"errors"
	"testing"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/product"
	"github.com/corray333/storefront/internal/service/models/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProductRepo struct {
	products []product.Product
	calls    int
	err      error
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	out := make([]product.Product, 0, len(ids))
	for _, p := range f.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}

	return out, nil
}

type fakePaymentClient struct {
	calls    int
	lastReq  payment.CreateSessionRequest
	session  *payment.Session
	err      error
}

func (f *fakePaymentClient) CreateSession(
	_ context.Context,
	req payment.CreateSessionRequest,
) (*payment.Session, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}

	return f.session, nil
}

func newTestService(repo *fakeProductRepo, client *fakePaymentClient) *CheckoutService {
	return &CheckoutService{
		productRepo: repo,
		payment:     client,
		currency:    currency.CurrencyUSD,
		baseURL:     "https://shop.test",
	}
}

var testIdentity = session.Identity{UserID: 7, Email: "buyer@example.com"}

func TestCreateSession(t *testing.T) {
	repo := &fakeProductRepo{
		products: []product.Product{
			{ID: 1, SellerID: 100, Name: "Keyboard", PriceCents: 2500, Currency: currency.CurrencyUSD, Stock: 10},
		},
	}
	client := &fakePaymentClient{
		session: &payment.Session{ID: "sess_1", URL: "https://pay.test/sess_1"},
	}
	svc := newTestService(repo, client)

	created, err := svc.CreateSession(context.Background(), testIdentity, CreateSessionRequest{
		Items:           []cart.LineRequest{{ProductID: 1, Quantity: 2}},
		ShippingAddress: "1 Main St",
	})
	require.NoError(t, err)

	assert.Equal(t, "sess_1", created.ID)
	assert.Equal(t, "https://pay.test/sess_1", created.URL)

	require.Len(t, client.lastReq.LineItems, 1)
	assert.Equal(t, int64(2500), client.lastReq.LineItems[0].PriceCents)
	assert.Equal(t, 2, client.lastReq.LineItems[0].Quantity)
	assert.Equal(t, "USD", client.lastReq.Currency)
	assert.Equal(t, "https://shop.test/checkout/success", client.lastReq.SuccessURL)
	assert.Equal(t, "https://shop.test/checkout/cancel", client.lastReq.CancelURL)

	meta, err := payment.DecodeMetadata(client.lastReq.Metadata)
	require.NoError(t, err)
	assert.Equal(t, int64(7), meta.CustomerID)
	assert.Equal(t, "buyer@example.com", meta.CustomerEmail)
	assert.Equal(t, "1 Main St", meta.ShippingAddress)
	require.Len(t, meta.Items, 1)
	assert.Equal(t, int64(2500), meta.Items[0].PriceCents)
}

func TestCreateSessionInsufficientStock(t *testing.T) {
	repo := &fakeProductRepo{
		products: []product.Product{
			{ID: 1, Name: "Keyboard", PriceCents: 2500, Currency: currency.CurrencyUSD, Stock: 10},
			{ID: 2, Name: "Mouse", PriceCents: 1500, Currency: currency.CurrencyUSD, Stock: 5},
		},
	}
	client := &fakePaymentClient{}
	svc := newTestService(repo, client)

	_, err := svc.CreateSession(context.Background(), testIdentity, CreateSessionRequest{
		Items: []cart.LineRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 10},
		},
		ShippingAddress: "1 Main St",
	})

	var stockErr *errs.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)
	assert.Equal(t, 10, stockErr.Requested)
	assert.Equal(t, 5, stockErr.Available)

	assert.Equal(t, 0, client.calls, "provider must not be called for a partially satisfiable cart")
}

func TestCreateSessionEmptyItems(t *testing.T) {
	repo := &fakeProductRepo{}
	client := &fakePaymentClient{}
	svc := newTestService(repo, client)

	_, err := svc.CreateSession(context.Background(), testIdentity, CreateSessionRequest{
		ShippingAddress: "1 Main St",
	})

	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, 0, repo.calls, "no stock read before validation")
	assert.Equal(t, 0, client.calls)
}

func TestCreateSessionUnknownProduct(t *testing.T) {
	repo := &fakeProductRepo{
		products: []product.Product{
			{ID: 1, Name: "Keyboard", PriceCents: 2500, Currency: currency.CurrencyUSD, Stock: 10},
		},
	}
	client := &fakePaymentClient{}
	svc := newTestService(repo, client)

	_, err := svc.CreateSession(context.Background(), testIdentity, CreateSessionRequest{
		Items: []cart.LineRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 42, Quantity: 1},
		},
		ShippingAddress: "1 Main St",
	})

	assert.ErrorIs(t, err, errs.ErrProductNotFound)
	assert.Equal(t, 0, client.calls)
}

func TestCreateSessionDuplicateLines(t *testing.T) {
	repo := &fakeProductRepo{}
	client := &fakePaymentClient{}
	svc := newTestService(repo, client)

	_, err := svc.CreateSession(context.Background(), testIdentity, CreateSessionRequest{
		Items: []cart.LineRequest{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 2},
		},
		ShippingAddress: "1 Main St",
	})

	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, 0, repo.calls)
}

func TestCreateSessionProviderError(t *testing.T) {
	repo := &fakeProductRepo{
		products: []product.Product{
			{ID: 1, Name: "Keyboard", PriceCents: 2500, Currency: currency.CurrencyUSD, Stock: 10},
		},
	}
	client := &fakePaymentClient{
		err: &errs.ProviderError{Provider: "payment", StatusCode: 503, Err: errors.New("unavailable")},
	}
	svc := newTestService(repo, client)

	_, err := svc.CreateSession(context.Background(), testIdentity, CreateSessionRequest{
		Items:           []cart.LineRequest{{ProductID: 1, Quantity: 1}},
		ShippingAddress: "1 Main St",
	})

	var providerErr *errs.ProviderError
	assert.ErrorAs(t, err, &providerErr)
}

func TestCreateSessionDeterministic(t *testing.T) {
	repo := &fakeProductRepo{
		products: []product.Product{
			{ID: 1, Name: "Keyboard", PriceCents: 2500, Currency: currency.CurrencyUSD, Stock: 10},
			{ID: 2, Name: "Mouse", PriceCents: 1999, Currency: currency.CurrencyUSD, Stock: 10},
		},
	}
	client := &fakePaymentClient{
		session: &payment.Session{ID: "sess_1", URL: "https://pay.test/sess_1"},
	}
	svc := newTestService(repo, client)

	req := CreateSessionRequest{
		Items: []cart.LineRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3},
		},
		ShippingAddress: "1 Main St",
	}

	_, err := svc.CreateSession(context.Background(), testIdentity, req)
	require.NoError(t, err)
	first := client.lastReq

	_, err = svc.CreateSession(context.Background(), testIdentity, req)
	require.NoError(t, err)

	assert.Equal(t, first.LineItems, client.lastReq.LineItems)
	assert.Equal(t, first.Metadata, client.lastReq.Metadata)
}
