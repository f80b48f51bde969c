package uow

import (
	"context"

	"github.com/corray333/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/storefront/internal/dal/postgres"
	orderrepo "github.com/corray333/storefront/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/storefront/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/storefront/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/corray333/storefront/internal/dal/repositories/product/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// unitOfWork binds the order, order item, product and outbox repositories to
// one pgx transaction so order creation, stock decrement and event emission
// commit or roll back together.
type unitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx

	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	productRepo   iproductrepo.IProductRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	pool := client.Pool()

	return &unitOfWork{
		pool:          pool,
		orderRepo:     orderrepo.NewOrderRepository(pool),
		orderItemRepo: orderitemrepo.NewOrderItemRepository(pool),
		productRepo:   productrepo.NewProductRepository(pool),
		outboxRepo:    outboxrepo.NewOutboxRepository(pool),
	}
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return u.productRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewOrderItemRepository(tx)
	u.productRepo = productrepo.NewProductRepository(tx)
	u.outboxRepo = outboxrepo.NewOutboxRepository(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Commit(ctx)
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}

	return u.tx.Rollback(ctx)
}
