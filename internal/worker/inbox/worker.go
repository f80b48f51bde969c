package inbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/corray333/storefront/internal/dal/interfaces/iinboxrepo"
	"github.com/spf13/viper"
)

// service represents the service layer interface.
type service interface {
	ProcessEvent(ctx context.Context, body []byte) error
}

// Worker retries events parked in the inbox table. Retries back off
// exponentially; messages exceeding their retry budget are dropped with an
// error log rather than blocking the rest.
type Worker struct {
	inboxRepo    iinboxrepo.IInboxRepository
	service      service
	pollInterval time.Duration
	batchSize    int
	stopCh       chan struct{}
}

// NewWorker creates a new inbox worker.
func NewWorker(inboxRepo iinboxrepo.IInboxRepository, service service) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.inbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 15
	}

	batchSize := viper.GetInt("rabbitmq.inbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	return &Worker{
		inboxRepo:    inboxRepo,
		service:      service,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
	}
}

// Start begins processing messages from the inbox.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Inbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Inbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Inbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessages retrieves and retries pending messages from the inbox.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.inboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from inbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing inbox messages", "count", len(messages))

	for _, msg := range messages {
		if err := w.service.ProcessEvent(ctx, msg.Payload); err != nil {
			newRetryCount := msg.RetryCount + 1
			if newRetryCount >= msg.MaxRetries {
				slog.Error("Max retries reached, dropping message",
					"inbox_id", msg.ID,
					"message_id", msg.MessageID,
					"error", err,
				)
				if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
					slog.Error("Failed to delete message from inbox", "inbox_id", msg.ID, "error", err)
				}

				continue
			}

			backoffSeconds := math.Pow(2, float64(newRetryCount)) * 30 // 30s, 60s, 120s, 240s, etc.
			nextRetryAt := time.Now().Add(time.Duration(backoffSeconds) * time.Second)

			slog.Warn("Failed to process message from inbox, will retry",
				"inbox_id", msg.ID,
				"retry_count", newRetryCount,
				"next_retry", nextRetryAt,
				"error", err,
			)

			if err := w.inboxRepo.UpdateRetry(ctx, msg.ID, newRetryCount, err.Error(), nextRetryAt); err != nil {
				slog.Error("Failed to update retry information", "inbox_id", msg.ID, "error", err)
			}

			continue
		}

		if err := w.inboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from inbox after successful processing",
				"inbox_id", msg.ID,
				"error", err,
			)
		} else {
			slog.Info("Message successfully processed and removed from inbox",
				"inbox_id", msg.ID,
				"message_id", msg.MessageID,
			)
		}
	}
}
