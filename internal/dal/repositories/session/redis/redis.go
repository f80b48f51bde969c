package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redisdal "github.com/corray333/storefront/internal/dal/redis"
	"github.com/corray333/storefront/internal/service/models/session"
	goredis "github.com/redis/go-redis/v9"
)

// SessionRepository resolves bearer tokens to user identities. Sessions are
// written by the external auth service; the storefront only reads them.
type SessionRepository struct {
	client *redisdal.Client
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(client *redisdal.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
	}
}

// Lookup returns the identity for a token, or nil when the token is unknown
// or expired.
func (r *SessionRepository) Lookup(ctx context.Context, token string) (*session.Identity, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := r.client.RDB().Get(ctx, fmt.Sprintf(redisdal.KeySession, token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	var identity session.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	return &identity, nil
}
