package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

func TestRedisRepositoriesWithoutClient(t *testing.T) {
	ctx := context.Background()

	cache := NewCacheRepository(nil, "colleges:", nil)
	var dest []string
	assert.ErrorIs(t, cache.Get(ctx, "list", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, cache.Set(ctx, "list", []string{"a"}, time.Minute))
	require.NoError(t, cache.DeleteByPattern(ctx, "*"))

	denylist := NewTokenDenylistRepository(nil)
	require.NoError(t, denylist.Deny(ctx, "jti", time.Minute))
	denied, err := denylist.IsDenied(ctx, "jti")
	require.NoError(t, err)
	assert.False(t, denied)

	limiter := NewRateLimitRepository(nil)
	allowed, err := limiter.Allow(ctx, "signin:1.2.3.4", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}
