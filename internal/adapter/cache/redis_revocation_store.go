package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andeslabs/bancora/internal/repository"
)

const tombstone = "1"

// RedisRevocationStore implements repository.RevocationStore backed by Redis.
// All writes are single atomic commands; the active-refresh record is an
// unconditional overwrite, so concurrent logins for one subject race and the
// last writer wins.
type RedisRevocationStore struct {
	client        redis.UniversalClient
	refreshPrefix string
	blockPrefix   string
	minRetention  time.Duration
	now           func() time.Time
}

var _ repository.RevocationStore = (*RedisRevocationStore)(nil)

// NewRedisRevocationStore constructs a Redis-backed revocation store.
func NewRedisRevocationStore(client redis.UniversalClient, refreshPrefix, blockPrefix string, minRetention time.Duration) *RedisRevocationStore {
	return &RedisRevocationStore{
		client:        client,
		refreshPrefix: refreshPrefix,
		blockPrefix:   blockPrefix,
		minRetention:  minRetention,
		now:           time.Now,
	}
}

// PutActiveRefresh records token as the single honorable refresh token for
// the subject, replacing any prior record.
func (s *RedisRevocationStore) PutActiveRefresh(ctx context.Context, subject, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.refreshPrefix+subject, token, ttl).Err(); err != nil {
		return fmt.Errorf("store active refresh: %w", err)
	}
	return nil
}

// GetActiveRefresh returns the recorded refresh token, or empty when none.
func (s *RedisRevocationStore) GetActiveRefresh(ctx context.Context, subject string) (string, error) {
	token, err := s.client.Get(ctx, s.refreshPrefix+subject).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("load active refresh: %w", err)
	}
	return token, nil
}

// ClearActiveRefresh removes the subject's active-refresh record.
func (s *RedisRevocationStore) ClearActiveRefresh(ctx context.Context, subject string) error {
	if err := s.client.Del(ctx, s.refreshPrefix+subject).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("clear active refresh: %w", err)
	}
	return nil
}

// Blacklist writes a tombstone for the raw token. The entry lives for the
// token's remaining lifetime, floored at the minimum retention window so an
// already-expired token is still remembered long enough to not matter.
func (s *RedisRevocationStore) Blacklist(ctx context.Context, rawToken string, expiresAt time.Time) error {
	ttl := blacklistTTL(expiresAt, s.now(), s.minRetention)
	if err := s.client.Set(ctx, s.blockPrefix+rawToken, tombstone, ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether a tombstone exists for the raw token. A
// backend failure surfaces as an error, never as "not blacklisted".
func (s *RedisRevocationStore) IsBlacklisted(ctx context.Context, rawToken string) (bool, error) {
	n, err := s.client.Exists(ctx, s.blockPrefix+rawToken).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}
	return n > 0, nil
}

func blacklistTTL(expiresAt, now time.Time, minRetention time.Duration) time.Duration {
	if !expiresAt.After(now) {
		return minRetention
	}
	remaining := expiresAt.Sub(now)
	if remaining < minRetention {
		return minRetention
	}
	return remaining
}
