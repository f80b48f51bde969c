package rates

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// service represents the service layer interface.
type service interface {
	Refresh(ctx context.Context) error
}

// Worker keeps the exchange rates cache warm. One refresh runs immediately on
// start so the cache is populated before the first request needs it.
type Worker struct {
	service  service
	interval time.Duration
	stopCh   chan struct{}
}

// NewWorker creates a new rates refresh worker.
func NewWorker(service service) *Worker {
	intervalMinutes := viper.GetInt("rates.refresh_interval_minutes")
	if intervalMinutes == 0 {
		intervalMinutes = 30
	}

	return &Worker{
		service:  service,
		interval: time.Duration(intervalMinutes) * time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the refresh loop.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Rates worker started", "interval", w.interval)

	if err := w.service.Refresh(ctx); err != nil {
		slog.Error("Failed to refresh rates", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Rates worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Rates worker stopped")

			return
		case <-ticker.C:
			if err := w.service.Refresh(ctx); err != nil {
				slog.Error("Failed to refresh rates", "error", err)
			}
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}
