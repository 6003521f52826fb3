package cache

import (
	"context"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

type streakEntry struct {
	day     string
	streak  int
	expires time.Time
}

// LocalStore is the in-process counterpart of RedisStore for single-instance runs.
type LocalStore struct {
	mu      sync.Mutex
	now     func() time.Time
	streaks map[string]streakEntry
	revoked map[string]time.Time
}

// NewLocalStore constructs an empty LocalStore.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		now:     time.Now,
		streaks: make(map[string]streakEntry),
		revoked: make(map[string]time.Time),
	}
}

// GetStreak implements domain.StreakCache.
func (s *LocalStore) GetStreak(_ context.Context, userID string, day time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.streaks[userID]
	if !ok || entry.day != day.Format(dayLayout) || !s.now().Before(entry.expires) {
		return 0, false, nil
	}
	return entry.streak, true, nil
}

// SetStreak implements domain.StreakCache.
func (s *LocalStore) SetStreak(_ context.Context, userID string, day time.Time, streak int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streaks[userID] = streakEntry{day: day.Format(dayLayout), streak: streak, expires: s.now().Add(ttl)}
	return nil
}

// InvalidateStreak implements domain.StreakCache.
func (s *LocalStore) InvalidateStreak(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.streaks, userID)
	return nil
}

// Revoke marks tokenID revoked until expiresAt.
func (s *LocalStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[tokenID] = expiresAt
	return nil
}

// IsRevoked implements auth.RevocationChecker.
func (s *LocalStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

// Close is a no-op.
func (s *LocalStore) Close() error { return nil }
