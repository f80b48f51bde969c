package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corray333/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/dal/postgres"
	"github.com/corray333/storefront/internal/dal/uow"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/event"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/models/orderitem"
	"github.com/corray333/storefront/internal/service/models/outbox"
	"github.com/corray333/storefront/internal/service/models/product"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	ProductRepository() iproductrepo.IProductRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// OrderService creates and reads orders. Orders come into existence only
// through confirmed payments; creation, stock decrement and the order.created
// outbox row share one transaction.
type OrderService struct {
	pgClient *postgres.Client
	newUOW   func() unitOfWork
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory overrides the unit-of-work constructor.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// PaymentConfirmation is a verified provider confirmation for a checkout
// session, with the reconciliation metadata echoed back by the provider.
type PaymentConfirmation struct {
	SessionID     string
	PaymentIntent string
	Meta          payment.Metadata
}

// CreateFromPayment turns a confirmed checkout session into a durable order.
// Stock is re-validated under row locks and decremented here, never at
// session creation and never in an event subscriber. If stock ran out between
// session creation and payment, the order is recorded with status failed and
// nothing is decremented. Replays of the same session are no-ops.
func (s *OrderService) CreateFromPayment(
	ctx context.Context,
	conf PaymentConfirmation,
) (order.Order, bool, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.CreateFromPayment")
	defer span.End()

	if conf.SessionID == "" {
		return order.Order{}, false, errs.Validation("session id must not be empty")
	}
	if len(conf.Meta.Items) == 0 {
		return order.Order{}, false, errs.Validation("confirmation carries no items")
	}

	cur, err := currency.ParseCurrency(conf.Meta.Currency)
	if err != nil {
		return order.Order{}, false, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, false, err
	}
	defer func() { _ = work.Rollback(ctx) }()

	existing, err := work.OrderRepository().GetByProviderSessionID(ctx, conf.SessionID)
	if err != nil {
		return order.Order{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	ids := make([]int64, 0, len(conf.Meta.Items))
	for _, item := range conf.Meta.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := work.ProductRepository().GetByIDsForUpdate(ctx, ids)
	if err != nil {
		return order.Order{}, false, err
	}

	byID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	status := order.StatusProcessing
	for _, item := range conf.Meta.Items {
		p, ok := byID[item.ProductID]
		if !ok || p.Stock < item.Quantity {
			status = order.StatusFailed

			break
		}
	}

	if status == order.StatusProcessing {
		for _, item := range conf.Meta.Items {
			affected, err := work.ProductRepository().DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return order.Order{}, false, err
			}
			if affected != 1 {
				return order.Order{}, false, fmt.Errorf(
					"stock decrement affected %d rows for product %d", affected, item.ProductID,
				)
			}
		}
	}

	now := time.Now()

	var total int64
	items := make([]orderitem.OrderItem, 0, len(conf.Meta.Items))
	for _, item := range conf.Meta.Items {
		subtotal := item.PriceCents * int64(item.Quantity)
		total += subtotal
		items = append(items, orderitem.OrderItem{
			ProductID:     item.ProductID,
			ProductName:   item.Name,
			Quantity:      item.Quantity,
			PriceCents:    item.PriceCents,
			SubtotalCents: subtotal,
			PriceCurrency: cur,
			CreatedAt:     now,
		})
	}

	inserted, err := work.OrderRepository().Insert(ctx, order.Order{
		CustomerID:            conf.Meta.CustomerID,
		Status:                status,
		TotalPriceCents:       total,
		TotalPriceCurrency:    cur,
		ShippingAddress:       conf.Meta.ShippingAddress,
		ProviderSessionID:     conf.SessionID,
		ProviderPaymentIntent: conf.PaymentIntent,
		CreatedAt:             now,
		UpdatedAt:             now,
	})
	if err != nil {
		// A concurrent webhook delivery may have won the insert race; the
		// unique constraint on provider_session_id makes the replay a no-op.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return order.Order{}, false, nil
		}

		return order.Order{}, false, err
	}

	for i := range items {
		items[i].OrderID = inserted.ID
	}
	items, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return order.Order{}, false, err
	}
	inserted.OrderItems = items

	if err := s.insertOrderCreatedEvent(ctx, work, inserted, conf.Meta, byID); err != nil {
		return order.Order{}, false, err
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, false, err
	}

	return inserted, true, nil
}

// insertOrderCreatedEvent writes the order.created outbox row inside the open
// transaction.
func (s *OrderService) insertOrderCreatedEvent(
	ctx context.Context,
	work unitOfWork,
	o order.Order,
	meta payment.Metadata,
	byID map[int64]product.Product,
) error {
	sellerIDs := make([]int64, 0, len(byID))
	seen := make(map[int64]struct{}, len(byID))
	for _, item := range meta.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		if _, dup := seen[p.SellerID]; dup {
			continue
		}
		seen[p.SellerID] = struct{}{}
		sellerIDs = append(sellerIDs, p.SellerID)
	}

	payload, err := json.Marshal(event.OrderCreatedPayload{
		Order:         o,
		CustomerEmail: meta.CustomerEmail,
		SellerIDs:     sellerIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order.created payload: %w", err)
	}

	envelope, err := json.Marshal(event.Envelope{
		EventID:      uuid.NewString(),
		EventType:    event.TypeOrderCreated,
		EventVersion: 1,
		OccurredAt:   o.CreatedAt,
		Producer:     "storefront",
		Payload:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order.created envelope: %w", err)
	}

	maxRetries := viper.GetInt("rabbitmq.outbox.max_retries")
	if maxRetries == 0 {
		maxRetries = 10
	}

	now := time.Now()

	return work.OutboxRepository().Insert(ctx, outbox.Message{
		QueueName:   viper.GetString("rabbitmq.queue"),
		Payload:     envelope,
		ContentType: "application/json",
		MaxRetries:  maxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
}

// GetOrders retrieves the customer's orders with their items.
func (s *OrderService) GetOrders(
	ctx context.Context,
	customerID int64,
	limit, offset int,
) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &order.QueryOrdersModel{
		CustomerIds: []int64{customerID},
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	return s.attachItems(ctx, work, orders)
}

// GetOrder retrieves one of the customer's orders by id.
func (s *OrderService) GetOrder(
	ctx context.Context,
	customerID int64,
	orderID int64,
) (*order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &order.QueryOrdersModel{
		Ids:         []int64{orderID},
		CustomerIds: []int64{customerID},
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, errs.ErrOrderNotFound
	}

	orders, err = s.attachItems(ctx, work, orders)
	if err != nil {
		return nil, err
	}

	return &orders[0], nil
}

func (s *OrderService) attachItems(
	ctx context.Context,
	work unitOfWork,
	orders []order.Order,
) ([]order.Order, error) {
	orderIds := make([]int64, 0, len(orders))
	for _, o := range orders {
		orderIds = append(orderIds, o.ID)
	}

	items, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIds: orderIds,
	})
	if err != nil {
		return nil, err
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].OrderItems = append(orders[i].OrderItems, item)
			}
		}
	}

	return orders, nil
}
