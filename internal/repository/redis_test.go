package repository_test

import (
	"PetAdoptAPI/internal/adapter"
	"PetAdoptAPI/internal/config"
	"PetAdoptAPI/internal/repository"
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRedis(t *testing.T) (*adapter.RedisAdapter, *config.AppConfig) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cfg := &config.AppConfig{RedisHost: host, RedisPort: port, JWTExp: 1}
	redisAdapter, err := adapter.NewRedisAdapter(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisAdapter.Close() })

	return redisAdapter, cfg
}

func TestRateLimitRepository_FixedWindow(t *testing.T) {
	redisAdapter, _ := openTestRedis(t)
	repo := repository.NewRateLimitRepository(redisAdapter)
	ctx := context.Background()
	key := "ratelimit:test:" + uuid.NewString()

	for i := 0; i < 2; i++ {
		allowed, ttl, err := repo.Allow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.LessOrEqual(t, ttl, time.Minute)
	}

	allowed, _, err := repo.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSessionRepository_Blacklist(t *testing.T) {
	redisAdapter, cfg := openTestRedis(t)
	repo := repository.NewSessionRepository(redisAdapter, cfg)
	ctx := context.Background()
	token := "token-" + uuid.NewString()

	assert.False(t, repo.IsTokenBlacklisted(ctx, token))
	require.NoError(t, repo.BlacklistToken(ctx, token, time.Minute))
	assert.True(t, repo.IsTokenBlacklisted(ctx, token))
}
