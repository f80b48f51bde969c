package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/corray333/storefront/internal/errs"
	"github.com/corray333/storefront/internal/service/models/session"
	"github.com/corray333/storefront/internal/transport/http/respond"
)

type contextKey struct{}

// sessionLookup resolves bearer tokens to identities.
type sessionLookup interface {
	Lookup(ctx context.Context, token string) (*session.Identity, error)
}

// Identity returns the authenticated identity stored in the request context.
func Identity(ctx context.Context) (session.Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(session.Identity)

	return identity, ok
}

// WithIdentity returns a context carrying the identity. Intended for tests
// and for the middleware itself.
func WithIdentity(ctx context.Context, identity session.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// NewMiddleware builds a middleware that resolves the Authorization bearer
// token to a session identity and rejects requests without one.
func NewMiddleware(sessions sessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || token == r.Header.Get("Authorization") {
				respond.WriteError(w, errs.ErrUnauthorized)

				return
			}

			identity, err := sessions.Lookup(r.Context(), token)
			if err != nil {
				respond.WriteError(w, err)

				return
			}
			if identity == nil {
				respond.WriteError(w, errs.ErrUnauthorized)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *identity)))
		})
	}
}
