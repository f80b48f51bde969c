package event

import (
	"encoding/json"
	"time"

	"github.com/corray333/storefront/internal/service/models/order"
)

const (
	TypeOrderCreated = "order.created"
)

// Envelope wraps every domain event published to the broker. EventID is the
// dedup key for idempotent subscribers.
type Envelope struct {
	EventID      string          `json:"eventId"`
	EventType    string          `json:"eventType"`
	EventVersion int             `json:"eventVersion"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

// OrderCreatedPayload carries the full order snapshot plus the data
// subscribers need to notify the parties involved. Subscribers must stay
// idempotent: the same event may be delivered more than once.
type OrderCreatedPayload struct {
	Order         order.Order `json:"order"`
	CustomerEmail string      `json:"customerEmail"`
	SellerIDs     []int64     `json:"sellerIds"`
}
