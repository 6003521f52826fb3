//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/zenscape/internal/domain"
	"example.com/zenscape/internal/pgtest"
)

func createUser(t *testing.T, repo *Repository) domain.User {
	t.Helper()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func TestRepositoryRespectsUserIsolation(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(pgtest.Start(t))

	owner := createUser(t, repo)
	other := createUser(t, repo)
	today := domain.CalendarDate(time.Now(), time.UTC)

	activity := domain.Activity{ID: uuid.NewString(), UserID: owner.ID, Type: domain.ActivityJournal, Date: today, CreatedAt: time.Now().UTC()}
	entry := domain.JournalEntry{ID: activity.ID, UserID: owner.ID, Mood: 4, SleepQuality: 3, Content: "calm", Date: today, CreatedAt: activity.CreatedAt, UpdatedAt: activity.CreatedAt}
	require.NoError(t, repo.CreateJournal(ctx, activity, entry))

	stored, err := repo.GetJournal(ctx, owner.ID, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "calm", stored.Content)

	storedOther, err := repo.GetJournal(ctx, other.ID, entry.ID)
	require.NoError(t, err)
	require.Nil(t, storedOther, "RLS should prevent cross-user access")

	_, err = repo.UpdateJournal(ctx, other.ID, domain.JournalEntry{ID: entry.ID, Mood: 1, SleepQuality: 1}, today)
	require.ErrorIs(t, err, domain.ErrJournalNotFound)
}

func TestRepositoryJournalGuardAndStreak(t *testing.T) {
	ctx := context.Background()
	pool := pgtest.Start(t)
	repo := NewRepository(pool)
	user := createUser(t, repo)

	today := domain.CalendarDate(time.Now(), time.UTC)
	for _, offset := range []int{-3, -2, -1} {
		require.NoError(t, repo.CreateActivity(ctx, domain.Activity{
			ID: uuid.NewString(), UserID: user.ID, Type: domain.ActivityMeditation,
			Date: today.AddDate(0, 0, offset), CreatedAt: time.Now().UTC(),
		}))
	}

	streak, err := repo.CurrentStreak(ctx, user.ID, today)
	require.NoError(t, err)
	require.Equal(t, 3, streak, "run ending yesterday still counts")

	yesterday := today.AddDate(0, 0, -1)
	old := domain.Activity{ID: uuid.NewString(), UserID: user.ID, Type: domain.ActivityJournal, Date: yesterday, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateJournal(ctx, old, domain.JournalEntry{
		ID: old.ID, UserID: user.ID, Mood: 2, SleepQuality: 2, Date: yesterday, CreatedAt: old.CreatedAt, UpdatedAt: old.CreatedAt,
	}))

	_, err = repo.UpdateJournal(ctx, user.ID, domain.JournalEntry{ID: old.ID, Mood: 5, SleepQuality: 5}, today)
	require.ErrorIs(t, err, domain.ErrJournalLocked)

	dup := domain.Activity{ID: uuid.NewString(), UserID: user.ID, Type: domain.ActivityJournal, Date: yesterday, CreatedAt: time.Now().UTC()}
	err = repo.CreateJournal(ctx, dup, domain.JournalEntry{
		ID: dup.ID, UserID: user.ID, Mood: 3, SleepQuality: 3, Date: yesterday, CreatedAt: dup.CreatedAt, UpdatedAt: dup.CreatedAt,
	})
	require.ErrorIs(t, err, domain.ErrJournalExists)

	items, next, err := repo.ListActivities(ctx, user.ID, domain.ActivityFilter{Date: &yesterday, Limit: 10})
	require.NoError(t, err)
	require.Nil(t, next)
	require.Len(t, items, 2)
	require.Equal(t, old.ID, items[0].ID, "newest first")
	require.NotNil(t, items[0].Journal)
	require.Nil(t, items[1].Journal)

	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE user_id = $1`, user.ID).Scan(&outboxCount))
	require.Equal(t, 5, outboxCount, "three activities plus one journal activity and its journal event")
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := NewRepository(pgtest.Start(t))
	user := createUser(t, repo)

	dup := user
	dup.ID = uuid.NewString()
	require.ErrorIs(t, repo.CreateUser(context.Background(), dup), domain.ErrEmailTaken)
}

