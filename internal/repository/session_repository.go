package repository

import (
	"PetAdoptAPI/internal/adapter"
	"PetAdoptAPI/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepository keeps signed-out tokens in Redis until they would have expired anyway.
type SessionRepository struct {
	redisAdapter *adapter.RedisAdapter
	cfg          *config.AppConfig
}

func NewSessionRepository(redisAdapter *adapter.RedisAdapter, cfg *config.AppConfig) *SessionRepository {
	return &SessionRepository{
		redisAdapter: redisAdapter,
		cfg:          cfg,
	}
}

func blacklistKey(tokenString string) string {
	return fmt.Sprintf("blacklist:%s", tokenString)
}

func (r *SessionRepository) BlacklistToken(ctx context.Context, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Duration(r.cfg.JWTExp) * time.Hour
	}
	return r.redisAdapter.Set(ctx, blacklistKey(tokenString), "revoked", ttl)
}

// IsTokenBlacklisted fails open when Redis is unreachable so an outage does not sign everyone out.
func (r *SessionRepository) IsTokenBlacklisted(ctx context.Context, tokenString string) bool {
	val, err := r.redisAdapter.Get(ctx, blacklistKey(tokenString))
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Failed to check token blacklist", "error", err)
		}
		return false
	}
	return val != ""
}
