package ratesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	redisdal "github.com/corray333/storefront/internal/dal/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// ratesProvider fetches the latest exchange rates for a base currency.
type ratesProvider interface {
	Latest(ctx context.Context, base string) (map[string]float64, error)
}

// RateService keeps a cached copy of exchange rates so order listings can
// show approximate converted totals without hitting the provider per request.
type RateService struct {
	provider ratesProvider
	redis    *redisdal.Client
	base     string
}

// option is a function that configures the RateService.
type option func(*RateService)

// MustNewRateService creates a new RateService.
func MustNewRateService(opts ...option) *RateService {
	base := viper.GetString("rates.base")
	if base == "" {
		base = "USD"
	}

	s := &RateService{
		base: base,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithRatesProvider sets the rates provider for the RateService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRatesProvider(provider ratesProvider) option {
	return func(s *RateService) {
		s.provider = provider
	}
}

// WithRedisClient sets the Redis client for the RateService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRedisClient(client *redisdal.Client) option {
	return func(s *RateService) {
		s.redis = client
	}
}

// Refresh fetches the latest rates for the base currency and caches them.
func (s *RateService) Refresh(ctx context.Context) error {
	rates, err := s.provider.Latest(ctx, s.base)
	if err != nil {
		return fmt.Errorf("failed to fetch rates: %w", err)
	}

	raw, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("failed to encode rates: %w", err)
	}

	key := fmt.Sprintf(redisdal.KeyRates, s.base)
	if err := s.redis.RDB().Set(ctx, key, raw, redisdal.TTLRates).Err(); err != nil {
		return fmt.Errorf("failed to cache rates: %w", err)
	}

	slog.Info("refreshed exchange rates", "base", s.base, "currencies", len(rates))

	return nil
}

// Latest returns the cached rates for the base currency, falling back to the
// provider on a cache miss.
func (s *RateService) Latest(ctx context.Context) (map[string]float64, error) {
	key := fmt.Sprintf(redisdal.KeyRates, s.base)

	raw, err := s.redis.RDB().Get(ctx, key).Result()
	if err == nil {
		var rates map[string]float64
		if err := json.Unmarshal([]byte(raw), &rates); err == nil {
			return rates, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("failed to read cached rates: %w", err)
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}

	raw, err = s.redis.RDB().Get(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached rates: %w", err)
	}

	var rates map[string]float64
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return nil, fmt.Errorf("failed to decode cached rates: %w", err)
	}

	return rates, nil
}
