package notifysvc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/corray333/storefront/internal/dal/email"
	"github.com/corray333/storefront/internal/service/models/currency"
	"github.com/corray333/storefront/internal/service/models/event"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/models/orderitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmailClient struct {
	sent        []email.Message
	notified    []email.SellerNotification
	sendErr     error
	notifyErr   error
}

func (f *fakeEmailClient) Send(_ context.Context, msg email.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)

	return nil
}

func (f *fakeEmailClient) NotifySeller(_ context.Context, n email.SellerNotification) error {
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.notified = append(f.notified, n)

	return nil
}

type fakeDeduper struct {
	processed map[string]bool
}

func (f *fakeDeduper) Exists(_ context.Context, key string) (bool, error) {
	return f.processed[key], nil
}

func (f *fakeDeduper) MarkProcessed(_ context.Context, key string) error {
	f.processed[key] = true

	return nil
}

func newTestService(client *fakeEmailClient, dedup *fakeDeduper) *NotifyService {
	return MustNewNotifyService(
		WithEmailClient(client),
		WithDeduper(dedup),
	)
}

func orderCreatedBody(t *testing.T, eventID string) []byte {
	t.Helper()

	payload, err := json.Marshal(event.OrderCreatedPayload{
		Order: order.Order{
			ID:                 42,
			CustomerID:         7,
			Status:             order.StatusProcessing,
			TotalPriceCents:    6999,
			TotalPriceCurrency: currency.CurrencyUSD,
			ShippingAddress:    "1 Main St",
			CreatedAt:          time.Now(),
			OrderItems: []orderitem.OrderItem{
				{ProductName: "Keyboard", Quantity: 2, SubtotalCents: 5000, PriceCurrency: currency.CurrencyUSD},
			},
		},
		CustomerEmail: "buyer@example.com",
		SellerIDs:     []int64{100, 200},
	})
	require.NoError(t, err)

	body, err := json.Marshal(event.Envelope{
		EventID:      eventID,
		EventType:    event.TypeOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now(),
		Producer:     "storefront",
		Payload:      payload,
	})
	require.NoError(t, err)

	return body
}

func TestProcessEvent(t *testing.T) {
	client := &fakeEmailClient{}
	dedup := &fakeDeduper{processed: map[string]bool{}}
	svc := newTestService(client, dedup)

	err := svc.ProcessEvent(context.Background(), orderCreatedBody(t, "evt_1"))
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, "buyer@example.com", client.sent[0].To)

	require.Len(t, client.notified, 2)
	assert.Equal(t, int64(100), client.notified[0].SellerID)
	assert.Equal(t, int64(42), client.notified[0].OrderID)

	assert.True(t, dedup.processed["dedup:notifier:evt_1"])
}

func TestProcessEventDedup(t *testing.T) {
	client := &fakeEmailClient{}
	dedup := &fakeDeduper{processed: map[string]bool{"dedup:notifier:evt_1": true}}
	svc := newTestService(client, dedup)

	err := svc.ProcessEvent(context.Background(), orderCreatedBody(t, "evt_1"))
	require.NoError(t, err)

	assert.Empty(t, client.sent, "redelivered event must not resend emails")
	assert.Empty(t, client.notified)
}

func TestProcessEventCustomerFailureStillNotifiesSellers(t *testing.T) {
	client := &fakeEmailClient{sendErr: errors.New("mailbox full")}
	dedup := &fakeDeduper{processed: map[string]bool{}}
	svc := newTestService(client, dedup)

	err := svc.ProcessEvent(context.Background(), orderCreatedBody(t, "evt_1"))
	require.Error(t, err)

	assert.Len(t, client.notified, 2, "seller notifications are independent of the customer email")
	assert.False(t, dedup.processed["dedup:notifier:evt_1"], "failed events stay retriable")
}

func TestProcessEventUnknownType(t *testing.T) {
	client := &fakeEmailClient{}
	dedup := &fakeDeduper{processed: map[string]bool{}}
	svc := newTestService(client, dedup)

	body, err := json.Marshal(event.Envelope{
		EventID:   "evt_2",
		EventType: "order.refunded",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ProcessEvent(context.Background(), body))
	assert.Empty(t, client.sent)
}

func TestProcessEventMalformed(t *testing.T) {
	svc := newTestService(&fakeEmailClient{}, &fakeDeduper{processed: map[string]bool{}})

	assert.Error(t, svc.ProcessEvent(context.Background(), []byte("not json")))
}
