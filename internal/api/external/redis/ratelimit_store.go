package redis

import (
	"context"
	"fmt"
	"time"

	"ShopFulfillment/internal/api/domain/ratelimit"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// incrementScript rejects without writing once the limit is reached, otherwise
// increments and starts the window TTL on the first hit.
// Returns {allowed, remaining window in ms}.
var incrementScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current >= tonumber(ARGV[1]) then
	return {0, redis.call('PTTL', KEYS[1])}
end
current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {1, redis.call('PTTL', KEYS[1])}
`)

// RateLimitStore shares fixed-window counters between instances. The key TTL
// is the window, so expiry is the reset.
type RateLimitStore struct {
	client redis.UniversalClient
}

var _ ratelimit.Store = (*RateLimitStore)(nil)

func NewRateLimitStore(client redis.UniversalClient) *RateLimitStore {
	return &RateLimitStore{client: client}
}

func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (s *RateLimitStore) Increment(ctx context.Context, key string, window time.Duration, limit int) (ratelimit.Decision, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{keyPrefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return ratelimit.Decision{}, fmt.Errorf("rate limit increment: %w", err)
	}
	if len(res) != 2 {
		return ratelimit.Decision{}, fmt.Errorf("rate limit increment: unexpected reply %v", res)
	}

	retryAfter := time.Duration(res[1]) * time.Millisecond
	if retryAfter < 0 {
		retryAfter = window
	}
	return ratelimit.Decision{Allowed: res[0] == 1, RetryAfter: retryAfter}, nil
}
