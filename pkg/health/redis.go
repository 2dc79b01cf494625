package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedisChecker pings the shared rate limit store.
func NewRedisChecker(client redis.UniversalClient) *PingChecker {
	return NewPingChecker("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
