package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Client wraps the go-redis client used for sessions, subscriber dedup and the
// currency-rate cache.
type Client struct {
	rdb *goredis.Client
}

// RDB returns the underlying go-redis client.
func (c *Client) RDB() *goredis.Client {
	return c.rdb
}

// Close closes the connection for graceful shutdown.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MustNewClient creates a new redis client.
func MustNewClient() *Client {
	addr := viper.GetString("redis.addr")
	if addr == "" {
		addr = "redis:6379"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		panic("failed to connect to redis: " + err.Error())
	}

	return &Client{rdb: rdb}
}

// Exists reports whether a key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()

	return n > 0, err
}
