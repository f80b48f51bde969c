package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/storefront/internal/dal/postgres"
	"github.com/corray333/storefront/internal/service/models/cart"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CartRepository implements the server-persisted cart for PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository creates a new cart repository.
func NewCartRepository(client *postgres.Client) *CartRepository {
	return &CartRepository{
		pool: client.Pool(),
	}
}

// Get returns the customer's cart lines.
func (r *CartRepository) Get(ctx context.Context, customerID int64) ([]cart.Line, error) {
	query, args, err := sq.Select("customer_id", "product_id", "quantity", "updated_at").
		From("carts").
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("product_id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer rows.Close()

	var lines []cart.Line
	for rows.Next() {
		var line cart.Line
		if err := rows.Scan(&line.CustomerID, &line.ProductID, &line.Quantity, &line.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return lines, nil
}

// Replace swaps the customer's cart for the given lines in one transaction.
func (r *CartRepository) Replace(ctx context.Context, customerID int64, lines []cart.Line) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	delQuery, delArgs, err := sq.Delete("carts").
		Where(sq.Eq{"customer_id": customerID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}
	if _, err := tx.Exec(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if len(lines) > 0 {
		builder := sq.Insert("carts").
			Columns("customer_id", "product_id", "quantity", "updated_at").
			PlaceholderFormat(sq.Dollar)
		now := time.Now()
		for _, line := range lines {
			builder = builder.Values(customerID, line.ProductID, line.Quantity, now)
		}

		insQuery, insArgs, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert query: %w", err)
		}
		if _, err := tx.Exec(ctx, insQuery, insArgs...); err != nil {
			return fmt.Errorf("failed to insert cart lines: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart replace: %w", err)
	}

	return nil
}

// Clear removes the customer's cart.
func (r *CartRepository) Clear(ctx context.Context, customerID int64) error {
	query, args, err := sq.Delete("carts").
		Where(sq.Eq{"customer_id": customerID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}

// DeleteStale removes cart lines not touched since the cutoff.
func (r *CartRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := sq.Delete("carts").
		Where(sq.Lt{"updated_at": cutoff}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale carts: %w", err)
	}

	return tag.RowsAffected(), nil
}
