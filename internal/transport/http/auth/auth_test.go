package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/storefront/internal/service/models/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	identities map[string]*session.Identity
}

func (f *fakeSessions) Lookup(_ context.Context, token string) (*session.Identity, error) {
	return f.identities[token], nil
}

func newHandler(sessions *fakeSessions) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return NewMiddleware(sessions)(next)
}

func TestMiddleware(t *testing.T) {
	sessions := &fakeSessions{identities: map[string]*session.Identity{
		"tok_1": {UserID: 7, Email: "buyer@example.com"},
	}}

	var gotIdentity session.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := Identity(r.Context())
		require.True(t, ok)
		gotIdentity = identity
		w.WriteHeader(http.StatusOK)
	})
	handler := NewMiddleware(sessions)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer tok_1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), gotIdentity.UserID)
}

func TestMiddlewareMissingToken(t *testing.T) {
	handler := newHandler(&fakeSessions{identities: map[string]*session.Identity{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareUnknownToken(t *testing.T) {
	handler := newHandler(&fakeSessions{identities: map[string]*session.Identity{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareMalformedHeader(t *testing.T) {
	handler := newHandler(&fakeSessions{identities: map[string]*session.Identity{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "tok_1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
