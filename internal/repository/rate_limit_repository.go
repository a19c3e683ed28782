package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:"

// RateLimitRepository counts requests per key in fixed windows.
type RateLimitRepository struct {
	client *redis.Client
}

// NewRateLimitRepository constructs the limiter store. A nil client allows everything.
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// Allow increments the counter for key and reports whether it is still within limit.
func (r *RateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil || limit <= 0 {
		return true, nil
	}
	bucket := fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, time.Now().UnixNano()/int64(window))

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(limit), nil
}
