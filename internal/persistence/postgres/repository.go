// Package postgres provides pgx-backed persistence for users, activities, journal
// entries and their outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/zenscape/internal/domain"
	"example.com/zenscape/internal/events"
	"example.com/zenscape/internal/observability"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// withUser runs fn in a transaction scoped to userID for row level security.
func (r *Repository) withUser(ctx context.Context, userID string, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.user_id', $1, true)", userID); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (user_id, email, first_name, last_name, password_hash, created_at)
         VALUES ($1,$2,$3,$4,$5,$6)`,
		user.ID, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return err
}

// FindUserByEmail implements domain.UserRepository.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, `WHERE email = $1`, email)
}

// GetUser implements domain.UserRepository.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return r.findUser(ctx, `WHERE user_id = $1`, id)
}

func (r *Repository) findUser(ctx context.Context, where string, arg string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT user_id::text, email, first_name, last_name, password_hash, created_at FROM users `+where, arg)
	var user domain.User
	if err := row.Scan(&user.ID, &user.Email, &user.FirstName, &user.LastName, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateActivity persists the activity and its activity.logged event inside a single transaction.
func (r *Repository) CreateActivity(ctx context.Context, activity domain.Activity) error {
	err := r.withUser(ctx, activity.UserID, func(tx pgx.Tx) error {
		return r.insertActivity(ctx, tx, activity)
	})
	if err != nil {
		return err
	}
	observability.Advance(observability.StageActivityStored, activity.CreatedAt)
	return nil
}

func (r *Repository) insertActivity(ctx context.Context, tx pgx.Tx, activity domain.Activity) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO user_activities (activity_id, user_id, activity_type, frequency, activity_date, created_at)
         VALUES ($1,$2,$3,$4,$5,$6)`,
		activity.ID, activity.UserID, string(activity.Type), activity.Frequency, activity.Date, activity.CreatedAt,
	)
	if err != nil {
		return err
	}

	return insertOutbox(ctx, tx, activity.UserID, "activity", activity.ID, events.TypeActivityLogged, events.ActivityLogged{
		ActivityID:   activity.ID,
		UserID:       activity.UserID,
		ActivityType: string(activity.Type),
		Frequency:    activity.Frequency,
		ActivityDate: activity.Date.Format(domain.DateLayout),
		OccurredAt:   activity.CreatedAt,
	})
}

// ListActivities returns activities newest first, attaching journal entries.
func (r *Repository) ListActivities(ctx context.Context, userID string, filter domain.ActivityFilter) ([]domain.Activity, *domain.Cursor, error) {
	args := []interface{}{userID, filter.Limit}
	query := `SELECT a.activity_id::text, a.user_id::text, a.activity_type, a.frequency, a.activity_date, a.created_at,
                     j.entry_id::text, j.mood, j.sleep_quality, j.content, j.created_at, j.updated_at
        FROM user_activities a
        LEFT JOIN journal_entries j ON j.entry_id = a.activity_id
        WHERE a.user_id = $1`

	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(` AND a.activity_date = $%d`, len(args))
	}
	if c := filter.Cursor; c != nil {
		args = append(args, c.Date, c.CreatedAt, c.ID)
		n := len(args)
		query += fmt.Sprintf(` AND (a.activity_date, a.created_at, a.activity_id::text) < ($%d, $%d, $%d)`, n-2, n-1, n)
	}
	query += ` ORDER BY a.activity_date DESC, a.created_at DESC, a.activity_id::text DESC LIMIT $2`

	results := make([]domain.Activity, 0, filter.Limit)
	err := r.withUser(ctx, userID, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				activity     domain.Activity
				activityType string
				entryID      *string
				mood, sleep  *int
				content      *string
				jCreated     *time.Time
				jUpdated     *time.Time
			)
			if err := rows.Scan(&activity.ID, &activity.UserID, &activityType, &activity.Frequency, &activity.Date, &activity.CreatedAt,
				&entryID, &mood, &sleep, &content, &jCreated, &jUpdated); err != nil {
				return err
			}
			activity.Type = domain.ActivityType(activityType)
			if entryID != nil {
				activity.Journal = &domain.JournalEntry{
					ID:           *entryID,
					UserID:       activity.UserID,
					Mood:         *mood,
					SleepQuality: *sleep,
					Content:      *content,
					Date:         activity.Date,
					CreatedAt:    *jCreated,
					UpdatedAt:    *jUpdated,
				}
			}
			results = append(results, activity)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(results) == filter.Limit {
		last := results[len(results)-1]
		next = &domain.Cursor{Date: last.Date, CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, next, nil
}

// CurrentStreak calls the get_current_streak stored function.
func (r *Repository) CurrentStreak(ctx context.Context, userID string, today time.Time) (int, error) {
	var streak int
	err := r.withUser(ctx, userID, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT get_current_streak($1::uuid, $2::date)`, userID, today).Scan(&streak)
	})
	return streak, err
}

// CreateJournal inserts the journal activity and entry sharing one id, plus both events.
func (r *Repository) CreateJournal(ctx context.Context, activity domain.Activity, entry domain.JournalEntry) error {
	err := r.withUser(ctx, activity.UserID, func(tx pgx.Tx) error {
		if err := r.insertActivity(ctx, tx, activity); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO journal_entries (entry_id, user_id, mood, sleep_quality, content, entry_date, created_at, updated_at)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			entry.ID, entry.UserID, entry.Mood, entry.SleepQuality, entry.Content, entry.Date, entry.CreatedAt, entry.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return insertOutbox(ctx, tx, entry.UserID, "journal", entry.ID, events.TypeJournalSaved, journalEvent(entry, true))
	})
	if isUniqueViolation(err) {
		return domain.ErrJournalExists
	}
	if err != nil {
		return err
	}
	observability.Advance(observability.StageJournalStored, entry.CreatedAt)
	return nil
}

const selectJournal = `SELECT entry_id::text, user_id::text, mood, sleep_quality, content, entry_date, created_at, updated_at FROM journal_entries `

// FindJournalByDate implements domain.JournalRepository.
func (r *Repository) FindJournalByDate(ctx context.Context, userID string, date time.Time) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := r.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		entry, err = scanJournal(tx.QueryRow(ctx, selectJournal+`WHERE user_id = $1 AND entry_date = $2`, userID, date))
		return err
	})
	return entry, err
}

// GetJournal implements domain.JournalRepository.
func (r *Repository) GetJournal(ctx context.Context, userID, id string) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := r.withUser(ctx, userID, func(tx pgx.Tx) error {
		var err error
		entry, err = scanJournal(tx.QueryRow(ctx, selectJournal+`WHERE user_id = $1 AND entry_id::text = $2`, userID, id))
		return err
	})
	return entry, err
}

// UpdateJournal calls the update_journal_entry stored function and records journal.saved.
func (r *Repository) UpdateJournal(ctx context.Context, userID string, update domain.JournalEntry, today time.Time) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := r.withUser(ctx, userID, func(tx pgx.Tx) error {
		var status string
		if err := tx.QueryRow(ctx, `SELECT update_journal_entry($1::uuid, $2::uuid, $3, $4, $5, $6::date)`,
			update.ID, userID, update.Mood, update.SleepQuality, update.Content, today).Scan(&status); err != nil {
			return err
		}
		switch status {
		case "not_found":
			return domain.ErrJournalNotFound
		case "locked":
			return domain.ErrJournalLocked
		}

		var err error
		entry, err = scanJournal(tx.QueryRow(ctx, selectJournal+`WHERE entry_id::text = $1`, update.ID))
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrJournalNotFound
		}
		return insertOutbox(ctx, tx, userID, "journal", entry.ID, events.TypeJournalSaved, journalEvent(*entry, false))
	})
	if err != nil {
		var pgErr *pgconn.PgError
		// Malformed ids never match a row.
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
			return nil, domain.ErrJournalNotFound
		}
		return nil, err
	}
	observability.Advance(observability.StageJournalStored, entry.UpdatedAt)
	return entry, nil
}

func scanJournal(row pgx.Row) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.Mood, &entry.SleepQuality, &entry.Content, &entry.Date, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func journalEvent(entry domain.JournalEntry, created bool) events.JournalSaved {
	return events.JournalSaved{
		EntryID:      entry.ID,
		UserID:       entry.UserID,
		Mood:         entry.Mood,
		SleepQuality: entry.SleepQuality,
		ActivityDate: entry.Date.Format(domain.DateLayout),
		Created:      created,
		OccurredAt:   entry.UpdatedAt,
	}
}

func insertOutbox(ctx context.Context, tx pgx.Tx, userID, aggregateType, aggregateID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	// Journal edits emit one event per save, so only creations are deduplicated.
	var dedupeKey interface{}
	if eventType == events.TypeActivityLogged {
		dedupeKey = fmt.Sprintf("%s:%s", aggregateID, eventType)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.Topic+"-value",
		userID,
		body,
		dedupeKey,
	)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeActivityLogged: {Topic: events.TopicActivity},
	events.TypeJournalSaved:   {Topic: events.TopicJournal},
}
