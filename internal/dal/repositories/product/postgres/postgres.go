package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/internal/dal/postgres"
	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/product"
	"github.com/jackc/pgx/v5"
)

var productColumns = []string{
	"id",
	"seller_id",
	"name",
	"description",
	"price_cents",
	"currency",
	"stock",
	"created_at",
	"updated_at",
}

// ProductDal represents the product data access layer model.
type ProductDal struct {
	Id          int64
	SellerId    int64
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ToModel converts ProductDal to the service layer Product model.
func (p *ProductDal) ToModel() (*product.Product, error) {
	cur, err := currency.ParseCurrency(p.Currency)
	if err != nil {
		return nil, err
	}

	return &product.Product{
		ID:          p.Id,
		SellerID:    p.SellerId,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Currency:    cur,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

type ProductRepository struct {
	conn postgres.Querier
}

// NewProductRepository creates a product repository bound to a pool or an
// open transaction.
func NewProductRepository(conn postgres.Querier) *ProductRepository {
	return &ProductRepository{
		conn: conn,
	}
}

func (r *ProductRepository) getByIDs(
	ctx context.Context,
	ids []int64,
	forUpdate bool,
) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}

	builder := sq.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": ids}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetByIDs fetches products by id, read-only.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	return r.getByIDs(ctx, ids, false)
}

// GetByIDsForUpdate fetches products by id holding row locks until the
// surrounding transaction commits.
func (r *ProductRepository) GetByIDsForUpdate(
	ctx context.Context,
	ids []int64,
) ([]product.Product, error) {
	return r.getByIDs(ctx, ids, true)
}

// List returns products for the public listing.
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]product.Product, error) {
	builder := sq.Select(productColumns...).
		From("products").
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// DecrementStock subtracts quantity from the product's stock. The WHERE guard
// keeps stock from ever going negative; a zero row count means the product
// vanished or no longer has enough units.
func (r *ProductRepository) DecrementStock(
	ctx context.Context,
	productID int64,
	quantity int,
) (int64, error) {
	query, args, err := sq.Update("products").
		Set("stock", sq.Expr("stock - ?", quantity)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": productID}).
		Where(sq.GtOrEq{"stock": quantity}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to decrement stock: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanProducts(rows pgx.Rows) ([]product.Product, error) {
	var result []product.Product
	for rows.Next() {
		var dal ProductDal
		err := rows.Scan(
			&dal.Id,
			&dal.SellerId,
			&dal.Name,
			&dal.Description,
			&dal.PriceCents,
			&dal.Currency,
			&dal.Stock,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert product dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
