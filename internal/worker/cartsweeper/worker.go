package cartsweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// service represents the service layer interface.
type service interface {
	SweepStale(ctx context.Context) error
}

// Worker periodically removes abandoned cart lines.
type Worker struct {
	service  service
	interval time.Duration
	stopCh   chan struct{}
}

// NewWorker creates a new cart sweeper worker.
func NewWorker(service service) *Worker {
	intervalMinutes := viper.GetInt("cart.sweep_interval_minutes")
	if intervalMinutes == 0 {
		intervalMinutes = 60
	}

	return &Worker{
		service:  service,
		interval: time.Duration(intervalMinutes) * time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Cart sweeper started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Cart sweeper shutting down")

			return
		case <-w.stopCh:
			slog.Info("Cart sweeper stopped")

			return
		case <-ticker.C:
			if err := w.service.SweepStale(ctx); err != nil {
				slog.Error("Failed to sweep stale carts", "error", err)
			}
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}
