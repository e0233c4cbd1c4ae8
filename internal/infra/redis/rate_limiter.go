package redis

import (
	"context"
	"fmt"
	"time"
)

type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow implements a fixed-window counter per submitter: first INCR in a
// window sets the expiry, counts past the limit are rejected until the
// window rolls over.
func (r *RateLimiter) Allow(ctx context.Context, submitter string, limit int, window time.Duration) (bool, error) {
	key := SubmitterKey(submitter)
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

func SubmitterKey(submitter string) string {
	return fmt.Sprintf("rate_limit:submit:%s", submitter)
}
