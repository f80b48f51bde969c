package redisrepo

import (
	"context"
	"fmt"

	redisdal "github.com/corray333/storefront/internal/dal/redis"
)

// DedupRepository remembers processed event ids so subscribers stay
// idempotent across redeliveries. Marks expire; events older than the dedup
// TTL are assumed to have left the broker long ago.
type DedupRepository struct {
	client *redisdal.Client
}

// NewDedupRepository creates a new dedup repository.
func NewDedupRepository(client *redisdal.Client) *DedupRepository {
	return &DedupRepository{
		client: client,
	}
}

// Exists reports whether the key has been marked processed.
func (r *DedupRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.RDB().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check dedup key: %w", err)
	}

	return n > 0, nil
}

// MarkProcessed marks the key processed with the dedup TTL.
func (r *DedupRepository) MarkProcessed(ctx context.Context, key string) error {
	if err := r.client.RDB().Set(ctx, key, "1", redisdal.TTLDedup).Err(); err != nil {
		return fmt.Errorf("failed to set dedup key: %w", err)
	}

	return nil
}
