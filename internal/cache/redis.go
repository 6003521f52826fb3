// Package cache holds short-lived per-user state: the daily streak and the
// revoked-token list.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps streaks and token revocations in Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore connects to url (redis://host:port/db) and verifies the connection.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Hash tags keep all keys of one user on the same cluster slot.
func streakKey(userID string) string {
	return "streak:{" + userID + "}"
}

func revokedKey(tokenID string) string {
	return "revoked:{" + tokenID + "}"
}

// GetStreak returns the cached streak when it was computed for day.
func (s *RedisStore) GetStreak(ctx context.Context, userID string, day time.Time) (int, bool, error) {
	values, err := s.client.HGetAll(ctx, streakKey(userID)).Result()
	if err != nil {
		return 0, false, err
	}
	if values["day"] != day.Format(dayLayout) {
		return 0, false, nil
	}
	streak, err := strconv.Atoi(values["streak"])
	if err != nil {
		return 0, false, nil
	}
	return streak, true, nil
}

// SetStreak caches streak for day with the given ttl.
func (s *RedisStore) SetStreak(ctx context.Context, userID string, day time.Time, streak int, ttl time.Duration) error {
	key := streakKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "day", day.Format(dayLayout), "streak", streak)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateStreak drops the cached streak.
func (s *RedisStore) InvalidateStreak(ctx context.Context, userID string) error {
	return s.client.Del(ctx, streakKey(userID)).Err()
}

// Revoke records tokenID as revoked until the token would have expired anyway.
func (s *RedisStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedKey(tokenID), 1, ttl).Err()
}

// IsRevoked implements auth.RevocationChecker.
func (s *RedisStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.client.Get(ctx, revokedKey(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
