package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/storefront/internal/dal/email"
	"github.com/corray333/storefront/internal/dal/postgres"
	"github.com/corray333/storefront/internal/dal/rabbitmq"
	"github.com/corray333/storefront/internal/dal/rates"
	redisdal "github.com/corray333/storefront/internal/dal/redis"
	dedupredis "github.com/corray333/storefront/internal/dal/repositories/dedup/redis"
	inboxrepo "github.com/corray333/storefront/internal/dal/repositories/inbox/postgres"
	"github.com/corray333/storefront/internal/metrics"
	"github.com/corray333/storefront/internal/otel"
	"github.com/corray333/storefront/internal/service/services/notifysvc"
	"github.com/corray333/storefront/internal/service/services/ratesvc"
	"github.com/corray333/storefront/internal/transport/consumer"
	inboxworker "github.com/corray333/storefront/internal/worker/inbox"
	ratesworker "github.com/corray333/storefront/internal/worker/rates"
	"github.com/spf13/viper"
)

// App represents the notifier application.
type App struct {
	metricsServer  *http.Server
	consumerTransp *consumer.Consumer
	inboxWorker    *inboxworker.Worker
	ratesWorker    *ratesworker.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	redisClient    *redisdal.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel("notifier")
	rabbitMqClient := rabbitmq.MustNewClient()
	postgresClient := postgres.MustNewClient()
	redisClient := redisdal.MustNewClient()
	emailClient := email.MustNewClient()
	ratesClient := rates.MustNewClient()

	inboxRepository := inboxrepo.NewInboxRepository(postgresClient.Pool())
	dedupRepository := dedupredis.NewDedupRepository(redisClient)

	notifySvc := notifysvc.MustNewNotifyService(
		notifysvc.WithEmailClient(emailClient),
		notifysvc.WithDeduper(dedupRepository),
	)

	rateSvc := ratesvc.MustNewRateService(
		ratesvc.WithRatesProvider(ratesClient),
		ratesvc.WithRedisClient(redisClient),
	)

	serverMetrics := metrics.NewServerMetrics()

	consumerTransp := consumer.NewConsumer(rabbitMqClient, notifySvc, inboxRepository, serverMetrics)

	inboxWorker := inboxworker.NewWorker(inboxRepository, notifySvc)
	ratesWorker := ratesworker.NewWorker(rateSvc)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", serverMetrics.Handler())
	metricsServer := &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.metrics.port"),
		Handler: metricsMux,
	}

	return &App{
		metricsServer:  metricsServer,
		consumerTransp: consumerTransp,
		inboxWorker:    inboxWorker,
		ratesWorker:    ratesWorker,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		redisClient:    redisClient,
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
		slog.Info("Starting consumer")
		if err := a.consumerTransp.Run(ctx); err != nil {
			slog.Error("Consumer error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting inbox worker")
		a.inboxWorker.Start(ctx)
	}()

	go func() {
		slog.Info("Starting rates worker")
		a.ratesWorker.Start(ctx)
	}()

	go func() {
		slog.Info("Starting metrics server", "addr", a.metricsServer.Addr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops the workers and consumer, then closes every client
// connection.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.inboxWorker.Stop()
	slog.Info("Inbox worker stopped gracefully")

	a.ratesWorker.Stop()
	slog.Info("Rates worker stopped gracefully")

	if err := a.metricsServer.Shutdown(ctx); err != nil {
		slog.Error("Metrics server shutdown error", "error", err)
	} else {
		slog.Info("Metrics server stopped gracefully")
	}

	if err := a.consumerTransp.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	} else {
		slog.Info("Consumer stopped gracefully")
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

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
