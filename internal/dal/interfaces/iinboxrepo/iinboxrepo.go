package iinboxrepo

import (
	"context"
	"time"

	"github.com/corray333/storefront/internal/service/models/inbox"
)

// IInboxRepository defines the interface for inbox operations.
type IInboxRepository interface {
	// Insert parks a message whose processing failed
	Insert(ctx context.Context, msg inbox.Message) error

	// GetPendingMessages retrieves messages that are ready for retry
	GetPendingMessages(ctx context.Context, limit int) ([]inbox.Message, error)

	// Delete removes a message from the inbox after successful processing
	Delete(ctx context.Context, id int64) error

	// UpdateRetry updates retry count and error information
	UpdateRetry(
		ctx context.Context,
		id int64,
		retryCount int,
		lastError string,
		nextRetryAt time.Time,
	) error
}
