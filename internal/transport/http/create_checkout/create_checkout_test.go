package createcheckout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/storefront/internal/dal/payment"
	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/session"
	"github.com/corray333/storefront/internal/service/services/checkoutsvc"
	"github.com/corray333/storefront/internal/transport/http/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	session  *payment.Session
	err      error
	lastReq  checkoutsvc.CreateSessionRequest
	identity session.Identity
	calls    int
}

func (f *fakeService) CreateSession(
	_ context.Context,
	identity session.Identity,
	req checkoutsvc.CreateSessionRequest,
) (*payment.Session, error) {
	f.calls++
	f.identity = identity
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}

	return f.session, nil
}

func doRequest(t *testing.T, svc *fakeService, body string, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/sessions", strings.NewReader(body))
	if authenticated {
		ctx := auth.WithIdentity(req.Context(), session.Identity{UserID: 7, Email: "buyer@example.com"})
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	CreateSession(rec, req, svc)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body.Error, body.Code
}

func TestCreateSessionHandler(t *testing.T) {
	svc := &fakeService{
		session: &payment.Session{ID: "sess_1", URL: "https://pay.test/sess_1"},
	}

	rec := doRequest(t, svc, `{
		"items": [{"productId": 1, "quantity": 2}],
		"shippingAddress": "1 Main St"
	}`, true)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Success    bool   `json:"success"`
		SessionID  string `json:"sessionId"`
		SessionURL string `json:"sessionUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "sess_1", body.SessionID)
	assert.Equal(t, "https://pay.test/sess_1", body.SessionURL)

	assert.Equal(t, int64(7), svc.identity.UserID)
	require.Len(t, svc.lastReq.Items, 1)
	assert.Equal(t, "1 Main St", svc.lastReq.ShippingAddress)
}

func TestCreateSessionHandlerNoShippingAddress(t *testing.T) {
	svc := &fakeService{
		session: &payment.Session{ID: "sess_2", URL: "https://pay.test/sess_2"},
	}

	rec := doRequest(t, svc, `{"items": [{"productId": 1, "quantity": 2}]}`, true)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, "", svc.lastReq.ShippingAddress)
}

func TestCreateSessionHandlerUnauthenticated(t *testing.T) {
	svc := &fakeService{}

	rec := doRequest(t, svc, `{"items": [{"productId": 1, "quantity": 2}], "shippingAddress": "x"}`, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, "UNAUTHORIZED", code)
	assert.Equal(t, 0, svc.calls)
}

func TestCreateSessionHandlerBadBody(t *testing.T) {
	svc := &fakeService{}

	rec := doRequest(t, svc, `{not json`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", code)
	assert.Equal(t, 0, svc.calls)
}

func TestCreateSessionHandlerEmptyItems(t *testing.T) {
	svc := &fakeService{}

	rec := doRequest(t, svc, `{"items": [], "shippingAddress": "1 Main St"}`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", code)
	assert.Equal(t, 0, svc.calls)
}

func TestCreateSessionHandlerInsufficientStock(t *testing.T) {
	svc := &fakeService{
		err: &errs.InsufficientStockError{ProductID: 2, Requested: 10, Available: 5},
	}

	rec := doRequest(t, svc, `{
		"items": [{"productId": 2, "quantity": 10}],
		"shippingAddress": "1 Main St"
	}`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg, code := decodeError(t, rec)
	assert.Equal(t, "INSUFFICIENT_STOCK", code)
	assert.Contains(t, msg, "requested 10, available 5")
}

func TestCreateSessionHandlerProviderDown(t *testing.T) {
	svc := &fakeService{
		err: &errs.ProviderError{Provider: "payment", StatusCode: 503},
	}

	rec := doRequest(t, svc, `{
		"items": [{"productId": 1, "quantity": 1}],
		"shippingAddress": "1 Main St"
	}`, true)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	_, code := decodeError(t, rec)
	assert.Equal(t, "PAYMENT_PROVIDER_ERROR", code)
}
