package inbox

import (
	"time"
)

// Message is a consumed event whose processing failed and is parked for retry
// by the inbox worker.
type Message struct {
	ID          int64
	MessageID   string
	QueueName   string
	RoutingKey  string
	Payload     []byte
	ContentType string
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	NextRetryAt time.Time
	DeliveryTag uint64
}
