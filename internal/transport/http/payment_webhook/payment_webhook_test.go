package paymentwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/service/models/order"
	"github.com/corray333/storefront/internal/service/services/ordersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	created  order.Order
	isNew    bool
	err      error
	lastConf ordersvc.PaymentConfirmation
	calls    int
}

func (f *fakeService) CreateFromPayment(
	_ context.Context,
	conf ordersvc.PaymentConfirmation,
) (order.Order, bool, error) {
	f.calls++
	f.lastConf = conf

	return f.created, f.isNew, f.err
}

type fakeVerifier struct {
	valid bool
}

func (f *fakeVerifier) VerifySignature(_ []byte, _ string) bool {
	return f.valid
}

func webhookBody(t *testing.T, eventType string) string {
	t.Helper()

	meta, err := payment.Metadata{
		CustomerID:      7,
		CustomerEmail:   "buyer@example.com",
		ShippingAddress: "1 Main St",
		Currency:        "USD",
		Items: []payment.MetadataItem{
			{ProductID: 1, Name: "Keyboard", Quantity: 2, PriceCents: 2500},
		},
	}.Encode()
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": eventType,
		"data": map[string]any{
			"sessionId":     "sess_1",
			"paymentIntent": "pi_1",
			"metadata":      meta,
		},
	})
	require.NoError(t, err)

	return string(body)
}

func doRequest(svc *fakeService, verifier *fakeVerifier, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", strings.NewReader(body))
	req.Header.Set(SignatureHeader, "sig")

	rec := httptest.NewRecorder()
	HandleWebhook(rec, req, svc, verifier)

	return rec
}

func TestHandleWebhook(t *testing.T) {
	svc := &fakeService{
		created: order.Order{ID: 42, Status: order.StatusProcessing},
		isNew:   true,
	}

	rec := doRequest(svc, &fakeVerifier{valid: true}, webhookBody(t, payment.EventSessionCompleted))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.calls)

	assert.Equal(t, "sess_1", svc.lastConf.SessionID)
	assert.Equal(t, "pi_1", svc.lastConf.PaymentIntent)
	assert.Equal(t, int64(7), svc.lastConf.Meta.CustomerID)
	require.Len(t, svc.lastConf.Meta.Items, 1)
	assert.Equal(t, int64(2500), svc.lastConf.Meta.Items[0].PriceCents)
}

func TestHandleWebhookBadSignature(t *testing.T) {
	svc := &fakeService{}

	rec := doRequest(svc, &fakeVerifier{valid: false}, webhookBody(t, payment.EventSessionCompleted))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestHandleWebhookIgnoredEventType(t *testing.T) {
	svc := &fakeService{}

	rec := doRequest(svc, &fakeVerifier{valid: true}, webhookBody(t, "checkout.session.expired"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, svc.calls)
}

func TestHandleWebhookProcessingError(t *testing.T) {
	svc := &fakeService{err: errors.New("db down")}

	rec := doRequest(svc, &fakeVerifier{valid: true}, webhookBody(t, payment.EventSessionCompleted))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleWebhookReplay(t *testing.T) {
	svc := &fakeService{
		created: order.Order{ID: 42},
		isNew:   false,
	}

	rec := doRequest(svc, &fakeVerifier{valid: true}, webhookBody(t, payment.EventSessionCompleted))

	assert.Equal(t, http.StatusOK, rec.Code, "replays are acknowledged, not retried")
}
