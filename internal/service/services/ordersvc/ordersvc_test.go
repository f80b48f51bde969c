package ordersvc

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/corray333/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/event"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/models/orderitem"
	"github.com/corray333/storefront/internal/service/models/outbox"
	"github.com/corray333/storefront/internal/service/models/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	orders []order.Order
	nextID int64
}

func (f *fakeOrderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	f.nextID++
	o.ID = f.nextID
	f.orders = append(f.orders, o)

	return o, nil
}

func (f *fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var out []order.Order
	for _, o := range f.orders {
		if len(filter.Ids) > 0 && !containsInt64(filter.Ids, o.ID) {
			continue
		}
		if len(filter.CustomerIds) > 0 && !containsInt64(filter.CustomerIds, o.CustomerID) {
			continue
		}
		out = append(out, o)
	}

	return out, nil
}

func (f *fakeOrderRepo) GetByProviderSessionID(_ context.Context, sessionID string) (*order.Order, error) {
	for _, o := range f.orders {
		if o.ProviderSessionID == sessionID {
			found := o

			return &found, nil
		}
	}

	return nil, nil
}

type fakeOrderItemRepo struct {
	items  []orderitem.OrderItem
	nextID int64
}

func (f *fakeOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	out := make([]orderitem.OrderItem, len(items))
	for i, item := range items {
		f.nextID++
		item.ID = f.nextID
		f.items = append(f.items, item)
		out[i] = item
	}

	return out, nil
}

func (f *fakeOrderItemRepo) Query(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	var out []orderitem.OrderItem
	for _, item := range f.items {
		if len(filter.OrderIds) > 0 && !containsInt64(filter.OrderIds, item.OrderID) {
			continue
		}
		out = append(out, item)
	}

	return out, nil
}

type fakeProductRepo struct {
	stock  map[int64]*product.Product
	locked int
}

func (f *fakeProductRepo) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	return f.get(ids), nil
}

func (f *fakeProductRepo) GetByIDsForUpdate(_ context.Context, ids []int64) ([]product.Product, error) {
	f.locked++

	return f.get(ids), nil
}

func (f *fakeProductRepo) get(ids []int64) []product.Product {
	var out []product.Product
	for _, id := range ids {
		if p, ok := f.stock[id]; ok {
			out = append(out, *p)
		}
	}

	return out
}

func (f *fakeProductRepo) List(_ context.Context, _, _ int) ([]product.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, productID int64, quantity int) (int64, error) {
	p, ok := f.stock[productID]
	if !ok || p.Stock < quantity {
		return 0, nil
	}
	p.Stock -= quantity

	return 1, nil
}

type fakeOutboxRepo struct {
	messages []outbox.Message
}

func (f *fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	f.messages = append(f.messages, msg)

	return nil
}

func (f *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.Message, error) {
	return f.messages, nil
}

func (f *fakeOutboxRepo) Delete(_ context.Context, _ int64) error {
	return nil
}

func (f *fakeOutboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

type fakeUOW struct {
	orderRepo     *fakeOrderRepo
	orderItemRepo *fakeOrderItemRepo
	productRepo   *fakeProductRepo
	outboxRepo    *fakeOutboxRepo

	begun      int
	committed  int
	rolledBack int
}

func (f *fakeUOW) Begin(_ context.Context) error {
	f.begun++

	return nil
}

func (f *fakeUOW) Commit(_ context.Context) error {
	f.committed++

	return nil
}

func (f *fakeUOW) Rollback(_ context.Context) error {
	f.rolledBack++

	return nil
}

func (f *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return f.orderRepo
}

func (f *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return f.orderItemRepo
}

func (f *fakeUOW) ProductRepository() iproductrepo.IProductRepository {
	return f.productRepo
}

func (f *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return f.outboxRepo
}

func containsInt64(xs []int64, x int64) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}

	return false
}

func newFakeUOW() *fakeUOW {
	return &fakeUOW{
		orderRepo:     &fakeOrderRepo{},
		orderItemRepo: &fakeOrderItemRepo{},
		productRepo: &fakeProductRepo{
			stock: map[int64]*product.Product{
				1: {ID: 1, SellerID: 100, Name: "Keyboard", PriceCents: 2500, Stock: 10},
				2: {ID: 2, SellerID: 200, Name: "Mouse", PriceCents: 1999, Stock: 3},
			},
		},
		outboxRepo: &fakeOutboxRepo{},
	}
}

func newTestService(work *fakeUOW) *OrderService {
	return MustNewOrderService(
		WithUnitOfWorkFactory(func() unitOfWork { return work }),
	)
}

func testConfirmation() PaymentConfirmation {
	return PaymentConfirmation{
		SessionID:     "sess_1",
		PaymentIntent: "pi_1",
		Meta: payment.Metadata{
			CustomerID:      7,
			CustomerEmail:   "buyer@example.com",
			ShippingAddress: "1 Main St",
			Currency:        "USD",
			Items: []payment.MetadataItem{
				{ProductID: 1, Name: "Keyboard", Quantity: 2, PriceCents: 2500},
				{ProductID: 2, Name: "Mouse", Quantity: 1, PriceCents: 1999},
			},
		},
	}
}

func TestCreateFromPayment(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	created, isNew, err := svc.CreateFromPayment(context.Background(), testConfirmation())
	require.NoError(t, err)
	assert.True(t, isNew)

	assert.Equal(t, order.StatusProcessing, created.Status)
	assert.Equal(t, int64(2*2500+1999), created.TotalPriceCents)
	assert.Equal(t, "sess_1", created.ProviderSessionID)
	require.Len(t, created.OrderItems, 2)
	assert.Equal(t, created.ID, created.OrderItems[0].OrderID)

	assert.Equal(t, 8, work.productRepo.stock[1].Stock)
	assert.Equal(t, 2, work.productRepo.stock[2].Stock)

	assert.Equal(t, 1, work.committed)
	require.Len(t, work.outboxRepo.messages, 1)

	var envelope event.Envelope
	require.NoError(t, json.Unmarshal(work.outboxRepo.messages[0].Payload, &envelope))
	assert.Equal(t, event.TypeOrderCreated, envelope.EventType)
	assert.NotEmpty(t, envelope.EventID)

	var payload event.OrderCreatedPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, created.ID, payload.Order.ID)
	assert.Equal(t, "buyer@example.com", payload.CustomerEmail)
	assert.ElementsMatch(t, []int64{100, 200}, payload.SellerIDs)
}

func TestCreateFromPaymentReplay(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	first, isNew, err := svc.CreateFromPayment(context.Background(), testConfirmation())
	require.NoError(t, err)
	require.True(t, isNew)

	replayed, isNew, err := svc.CreateFromPayment(context.Background(), testConfirmation())
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, replayed.ID)

	assert.Len(t, work.orderRepo.orders, 1, "replay must not create a second order")
	assert.Len(t, work.outboxRepo.messages, 1, "replay must not emit a second event")
	assert.Equal(t, 8, work.productRepo.stock[1].Stock, "replay must not decrement stock again")
}

func TestCreateFromPaymentInsufficientStock(t *testing.T) {
	work := newFakeUOW()
	work.productRepo.stock[2].Stock = 0
	svc := newTestService(work)

	created, isNew, err := svc.CreateFromPayment(context.Background(), testConfirmation())
	require.NoError(t, err)
	assert.True(t, isNew)

	assert.Equal(t, order.StatusFailed, created.Status)
	assert.Equal(t, 10, work.productRepo.stock[1].Stock, "no decrement for a failed order")
	require.Len(t, work.outboxRepo.messages, 1, "failed orders still emit order.created")
}

func TestCreateFromPaymentSnapshotImmutability(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	conf := testConfirmation()
	// The product price changed between session creation and payment; the
	// order must keep the price the customer actually paid.
	work.productRepo.stock[1].PriceCents = 9999

	created, _, err := svc.CreateFromPayment(context.Background(), conf)
	require.NoError(t, err)

	assert.Equal(t, int64(2500), created.OrderItems[0].PriceCents)
	assert.Equal(t, int64(5000), created.OrderItems[0].SubtotalCents)
}

func TestCreateFromPaymentValidation(t *testing.T) {
	svc := newTestService(newFakeUOW())

	_, _, err := svc.CreateFromPayment(context.Background(), PaymentConfirmation{})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestGetOrder(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	created, _, err := svc.CreateFromPayment(context.Background(), testConfirmation())
	require.NoError(t, err)

	found, err := svc.GetOrder(context.Background(), 7, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Len(t, found.OrderItems, 2)
}

func TestGetOrderWrongCustomer(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	created, _, err := svc.CreateFromPayment(context.Background(), testConfirmation())
	require.NoError(t, err)

	_, err = svc.GetOrder(context.Background(), 8, created.ID)
	assert.ErrorIs(t, err, errs.ErrOrderNotFound)
}

func TestGetOrders(t *testing.T) {
	work := newFakeUOW()
	svc := newTestService(work)

	_, _, err := svc.CreateFromPayment(context.Background(), testConfirmation())
	require.NoError(t, err)

	orders, err := svc.GetOrders(context.Background(), 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].OrderItems, 2)

	orders, err = svc.GetOrders(context.Background(), 9, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
