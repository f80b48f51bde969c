package notifysvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corray333/storefront/internal/dal/email"
	redisdal "github.com/corray333/storefront/internal/dal/redis"
	"github.com/corray333/storefront/internal/service/models/event"
	"go.opentelemetry.io/otel"
)

const consumerName = "notifier"

// emailClient delivers customer and seller notifications.
type emailClient interface {
	Send(ctx context.Context, msg email.Message) error
	NotifySeller(ctx context.Context, n email.SellerNotification) error
}

// deduper remembers processed event ids.
type deduper interface {
	Exists(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string) error
}

// NotifyService reacts to order.created events with email side effects. Every
// handler is idempotent: redelivered events are detected by event id and
// skipped.
type NotifyService struct {
	dedup deduper
	send  emailClient
}

// option is a function that configures the NotifyService.
type option func(*NotifyService)

// MustNewNotifyService creates a new NotifyService.
func MustNewNotifyService(opts ...option) *NotifyService {
	s := &NotifyService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithEmailClient sets the email provider client for the NotifyService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithEmailClient(client emailClient) option {
	return func(s *NotifyService) {
		s.send = client
	}
}

// WithDeduper sets the processed-event store for the NotifyService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDeduper(d deduper) option {
	return func(s *NotifyService) {
		s.dedup = d
	}
}

// ProcessEvent dispatches one broker delivery to its handler. Unknown event
// types are acknowledged and dropped so a producer upgrade never wedges the
// queue.
func (s *NotifyService) ProcessEvent(ctx context.Context, body []byte) error {
	ctx, span := otel.Tracer("notifysvc").Start(ctx, "NotifyService.ProcessEvent")
	defer span.End()

	var envelope event.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	switch envelope.EventType {
	case event.TypeOrderCreated:
		return s.processOrderCreated(ctx, envelope)
	default:
		slog.Warn("skipping unknown event type",
			"event_type", envelope.EventType,
			"event_id", envelope.EventID,
		)

		return nil
	}
}

// processOrderCreated sends the customer confirmation and the per-seller
// notifications. The side effects are independent: a failing customer email
// does not stop seller notifications, and only the failed ones surface as an
// error for retry.
func (s *NotifyService) processOrderCreated(ctx context.Context, envelope event.Envelope) error {
	dedupKey := fmt.Sprintf(redisdal.KeyDedup, consumerName, envelope.EventID)

	processed, err := s.dedup.Exists(ctx, dedupKey)
	if err != nil {
		return fmt.Errorf("failed to check dedup key: %w", err)
	}
	if processed {
		slog.Info("skipping already processed event", "event_id", envelope.EventID)

		return nil
	}

	var payload event.OrderCreatedPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode order.created payload: %w", err)
	}

	var errsJoined error

	if err := s.send.Send(ctx, email.Message{
		To:      payload.CustomerEmail,
		Subject: fmt.Sprintf("Order #%d confirmed", payload.Order.ID),
		Body:    customerBody(payload),
	}); err != nil {
		errsJoined = errors.Join(errsJoined, fmt.Errorf("customer email: %w", err))
	}

	for _, sellerID := range payload.SellerIDs {
		if err := s.send.NotifySeller(ctx, email.SellerNotification{
			SellerID: sellerID,
			OrderID:  payload.Order.ID,
			Subject:  fmt.Sprintf("New order #%d", payload.Order.ID),
			Body:     sellerBody(payload),
		}); err != nil {
			errsJoined = errors.Join(errsJoined, fmt.Errorf("seller %d: %w", sellerID, err))
		}
	}

	if errsJoined != nil {
		return errsJoined
	}

	if err := s.dedup.MarkProcessed(ctx, dedupKey); err != nil {
		// The event was handled; a lost dedup mark only risks one duplicate
		// email on redelivery.
		slog.Error("failed to mark event processed", "event_id", envelope.EventID, "error", err)
	}

	return nil
}

func customerBody(payload event.OrderCreatedPayload) string {
	o := payload.Order

	body := fmt.Sprintf(
		"Your order #%d is %s.\n\nItems:\n", o.ID, o.Status,
	)
	for _, item := range o.OrderItems {
		body += fmt.Sprintf("  %s x%d — %d.%02d %s\n",
			item.ProductName,
			item.Quantity,
			item.SubtotalCents/100,
			item.SubtotalCents%100,
			item.PriceCurrency,
		)
	}
	body += fmt.Sprintf("\nTotal: %d.%02d %s\nShipping to: %s\n",
		o.TotalPriceCents/100,
		o.TotalPriceCents%100,
		o.TotalPriceCurrency,
		o.ShippingAddress,
	)

	return body
}

func sellerBody(payload event.OrderCreatedPayload) string {
	return fmt.Sprintf(
		"Order #%d placed at %s includes your products. Check your seller dashboard for details.",
		payload.Order.ID,
		payload.Order.CreatedAt.Format("2006-01-02 15:04:05"),
	)
}
