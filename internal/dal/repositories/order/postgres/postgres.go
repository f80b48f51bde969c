package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/internal/dal/postgres"
	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id",
	"customer_id",
	"status",
	"total_price_cents",
	"total_price_currency",
	"shipping_address",
	"provider_session_id",
	"provider_payment_intent",
	"created_at",
	"updated_at",
}

// OrderDal represents the order data access layer model.
type OrderDal struct {
	Id                    int64
	CustomerId            int64
	Status                string
	TotalPriceCents       int64
	TotalPriceCurrency    string
	ShippingAddress       string
	ProviderSessionId     string
	ProviderPaymentIntent string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(o.TotalPriceCurrency)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:                    o.Id,
		CustomerID:            o.CustomerId,
		Status:                status,
		TotalPriceCents:       o.TotalPriceCents,
		TotalPriceCurrency:    cur,
		ShippingAddress:       o.ShippingAddress,
		ProviderSessionID:     o.ProviderSessionId,
		ProviderPaymentIntent: o.ProviderPaymentIntent,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		OrderItems:            []orderitem.OrderItem{}, // Will be populated separately
	}, nil
}

type OrderRepository struct {
	conn postgres.Querier
}

// NewOrderRepository creates an order repository bound to a pool or an open
// transaction.
func NewOrderRepository(conn postgres.Querier) *OrderRepository {
	return &OrderRepository{
		conn: conn,
	}
}

// Insert stores a new order and returns it with its assigned id.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	query, args, err := sq.Insert("orders").
		Columns(
			"customer_id",
			"status",
			"total_price_cents",
			"total_price_currency",
			"shipping_address",
			"provider_session_id",
			"provider_payment_intent",
			"created_at",
			"updated_at",
		).
		Values(
			o.CustomerID,
			o.Status.String(),
			o.TotalPriceCents,
			o.TotalPriceCurrency.String(),
			o.ShippingAddress,
			o.ProviderSessionID,
			o.ProviderPaymentIntent,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&o.ID); err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// Query retrieves orders based on filter criteria, newest first.
func (r *OrderRepository) Query(
	ctx context.Context,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		OrderBy("created_at DESC, id DESC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.CustomerIds) > 0 {
		builder = builder.Where(sq.Eq{"customer_id": filter.CustomerIds})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		model, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// GetByProviderSessionID returns the order created for a provider checkout
// session, or nil when none exists.
func (r *OrderRepository) GetByProviderSessionID(
	ctx context.Context,
	sessionID string,
) (*order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"provider_session_id": sessionID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order by session id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows iteration error: %w", err)
		}

		return nil, nil
	}

	return scanOrder(rows)
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.Id,
		&dal.CustomerId,
		&dal.Status,
		&dal.TotalPriceCents,
		&dal.TotalPriceCurrency,
		&dal.ShippingAddress,
		&dal.ProviderSessionId,
		&dal.ProviderPaymentIntent,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	model, err := dal.ToModel()
	if err != nil {
		return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
	}

	return model, nil
}
