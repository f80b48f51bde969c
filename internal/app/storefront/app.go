package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/dal/postgres"
	"github.com/corray333/storefront/internal/dal/rabbitmq"
	redisdal "github.com/corray333/storefront/internal/dal/redis"
	cartrepo "github.com/corray333/storefront/internal/dal/repositories/cart/postgres"
	outboxrepo "github.com/corray333/storefront/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/corray333/storefront/internal/dal/repositories/product/postgres"
	sessionrepo "github.com/corray333/storefront/internal/dal/repositories/session/redis"
	"github.com/corray333/storefront/internal/metrics"
	"github.com/corray333/storefront/internal/otel"
	"github.com/corray333/storefront/internal/service/services/cartsvc"
	"github.com/corray333/storefront/internal/service/services/checkoutsvc"
	"github.com/corray333/storefront/internal/service/services/ordersvc"
	"github.com/corray333/storefront/internal/service/services/productsvc"
	httptransport "github.com/corray333/storefront/internal/transport/http"
	"github.com/corray333/storefront/internal/worker/cartsweeper"
	outboxworker "github.com/corray333/storefront/internal/worker/outbox"
)

// App represents the storefront API application.
type App struct {
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	cartSweeper    *cartsweeper.Worker
	postgresClient *postgres.Client
	redisClient    *redisdal.Client
	rabbitMqClient *rabbitmq.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("storefront")
	postgresClient := postgres.MustNewClient()
	redisClient := redisdal.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()
	paymentClient := payment.MustNewClient()

	productRepository := productrepo.NewProductRepository(postgresClient.Pool())
	outboxRepository := outboxrepo.NewOutboxRepository(postgresClient.Pool())
	cartRepository := cartrepo.NewCartRepository(postgresClient)
	sessionRepository := sessionrepo.NewSessionRepository(redisClient)

	checkoutSvc := checkoutsvc.MustNewCheckoutService(
		checkoutsvc.WithProductRepository(productRepository),
		checkoutsvc.WithPaymentClient(paymentClient),
	)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
	)

	productSvc := productsvc.MustNewProductService(
		productsvc.WithProductRepository(productRepository),
	)

	cartSvc := cartsvc.MustNewCartService(
		cartsvc.WithCartRepository(cartRepository),
	)

	serverMetrics := metrics.NewServerMetrics()

	transport := httptransport.NewHTTPTransport(
		checkoutSvc,
		orderSvc,
		productSvc,
		cartSvc,
		sessionRepository,
		paymentClient,
		serverMetrics,
	)
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(outboxRepository, rabbitMqClient, serverMetrics)
	cartSweeper := cartsweeper.NewWorker(cartSvc)

	return &App{
		transport:      transport,
		outboxWorker:   outboxWorker,
		cartSweeper:    cartSweeper,
		postgresClient: postgresClient,
		redisClient:    redisClient,
		rabbitMqClient: rabbitMqClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	go func() {
		slog.Info("Starting cart sweeper")
		a.cartSweeper.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops the workers, drains the HTTP server and closes every
// client connection.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	a.cartSweeper.Stop()
	slog.Info("Cart sweeper stopped gracefully")

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.redisClient.Close(); err != nil {
		slog.Error("Redis connection close error", "error", err)
	} else {
		slog.Info("Redis connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	slog.Info("Application shutdown complete")
}
