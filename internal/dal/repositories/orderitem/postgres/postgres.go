package postgresrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/internal/dal/postgres"
	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/orderitem"
)

var orderItemColumns = []string{
	"id",
	"order_id",
	"product_id",
	"product_name",
	"quantity",
	"price_cents",
	"subtotal_cents",
	"price_currency",
	"created_at",
}

// OrderItemDal represents the order item data access layer model.
type OrderItemDal struct {
	Id            int64
	OrderId       int64
	ProductId     int64
	ProductName   string
	Quantity      int
	PriceCents    int64
	SubtotalCents int64
	PriceCurrency string
	CreatedAt     time.Time
}

// ToModel converts OrderItemDal to the service layer OrderItem model.
func (i *OrderItemDal) ToModel() (*orderitem.OrderItem, error) {
	cur, err := currency.ParseCurrency(i.PriceCurrency)
	if err != nil {
		return nil, err
	}

	return &orderitem.OrderItem{
		ID:            i.Id,
		OrderID:       i.OrderId,
		ProductID:     i.ProductId,
		ProductName:   i.ProductName,
		Quantity:      i.Quantity,
		PriceCents:    i.PriceCents,
		SubtotalCents: i.SubtotalCents,
		PriceCurrency: cur,
		CreatedAt:     i.CreatedAt,
	}, nil
}

type OrderItemRepository struct {
	conn postgres.Querier
}

// NewOrderItemRepository creates an order item repository bound to a pool or
// an open transaction.
func NewOrderItemRepository(conn postgres.Querier) *OrderItemRepository {
	return &OrderItemRepository{
		conn: conn,
	}
}

// BulkInsert stores the snapshot items of an order and returns them with
// assigned ids.
func (r *OrderItemRepository) BulkInsert(
	ctx context.Context,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := sq.Insert("order_items").
		Columns(
			"order_id",
			"product_id",
			"product_name",
			"quantity",
			"price_cents",
			"subtotal_cents",
			"price_currency",
			"created_at",
		).
		Suffix("RETURNING " + strings.Join(orderItemColumns, ", ")).
		PlaceholderFormat(sq.Dollar)

	for _, item := range items {
		builder = builder.Values(
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.PriceCents,
			item.SubtotalCents,
			item.PriceCurrency.String(),
			item.CreatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.ProductName,
			&dal.Quantity,
			&dal.PriceCents,
			&dal.SubtotalCents,
			&dal.PriceCurrency,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order item dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Query retrieves order items based on filter criteria.
func (r *OrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	builder := sq.Select(orderItemColumns...).
		From("order_items").
		OrderBy("order_id ASC, id ASC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.OrderIds) > 0 {
		builder = builder.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.ProductName,
			&dal.Quantity,
			&dal.PriceCents,
			&dal.SubtotalCents,
			&dal.PriceCurrency,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order item dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
