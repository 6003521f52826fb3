// Package memory provides an in-process repository for tests and STORE=memory dev mode.
package memory

import (
	"context"
	"sync"
	"time"

	"example.com/zenscape/internal/domain"
	"example.com/zenscape/internal/events"
)

// Event is an event recorded in place of an outbox row.
type Event struct {
	Type    string
	Payload interface{}
}

// Repository stores users, activities and journal entries in memory.
type Repository struct {
	mu         sync.RWMutex
	users      map[string]domain.User
	emails     map[string]string
	activities map[string][]domain.Activity
	journals   map[string]domain.JournalEntry
	recording  bool
	events     []Event
}

// Option configures a Repository.
type Option func(*Repository)

// WithEventLog keeps every emitted event so tests can inspect them through
// Events. Without it events are dropped, as nothing downstream consumes them.
func WithEventLog() Option {
	return func(r *Repository) {
		r.recording = true
	}
}

// NewRepository constructs an empty Repository.
func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		users:      make(map[string]domain.User),
		emails:     make(map[string]string),
		activities: make(map[string][]domain.Activity),
		journals:   make(map[string]domain.JournalEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateUser implements domain.UserRepository.
func (r *Repository) CreateUser(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[user.Email]; taken {
		return domain.ErrEmailTaken
	}
	r.users[user.ID] = user
	r.emails[user.Email] = user.ID
	return nil
}

// FindUserByEmail implements domain.UserRepository.
func (r *Repository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[email]
	if !ok {
		return nil, nil
	}
	user := r.users[id]
	return &user, nil
}

// GetUser implements domain.UserRepository.
func (r *Repository) GetUser(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// CreateActivity implements domain.ActivityRepository.
func (r *Repository) CreateActivity(_ context.Context, activity domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.appendActivity(activity)
	return nil
}

func (r *Repository) appendActivity(activity domain.Activity) {
	r.activities[activity.UserID] = append(r.activities[activity.UserID], activity)
	r.record(events.TypeActivityLogged, events.ActivityLogged{
		ActivityID:   activity.ID,
		UserID:       activity.UserID,
		ActivityType: string(activity.Type),
		Frequency:    activity.Frequency,
		ActivityDate: activity.Date.Format(domain.DateLayout),
		OccurredAt:   activity.CreatedAt,
	})
}

// ListActivities implements domain.ActivityRepository.
func (r *Repository) ListActivities(_ context.Context, userID string, filter domain.ActivityFilter) ([]domain.Activity, *domain.Cursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := append([]domain.Activity(nil), r.activities[userID]...)
	domain.SortActivities(all)

	results := make([]domain.Activity, 0, filter.Limit)
	for _, activity := range all {
		if filter.Date != nil && !activity.Date.Equal(*filter.Date) {
			continue
		}
		if c := filter.Cursor; c != nil {
			key := domain.Activity{ID: c.ID, Date: c.Date, CreatedAt: c.CreatedAt}
			if !domain.ActivityBefore(activity, key) {
				continue
			}
		}
		if activity.Type == domain.ActivityJournal {
			if entry, ok := r.journals[activity.ID]; ok {
				activity.Journal = &entry
			}
		}
		results = append(results, activity)
		if len(results) == filter.Limit {
			break
		}
	}

	var next *domain.Cursor
	if filter.Limit > 0 && len(results) == filter.Limit {
		last := results[len(results)-1]
		next = &domain.Cursor{Date: last.Date, CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return results, next, nil
}

// CurrentStreak implements domain.ActivityRepository.
func (r *Repository) CurrentStreak(_ context.Context, userID string, today time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dates := make([]time.Time, 0, len(r.activities[userID]))
	for _, activity := range r.activities[userID] {
		dates = append(dates, activity.Date)
	}
	return domain.ComputeStreak(dates, today), nil
}

// CreateJournal implements domain.JournalRepository.
func (r *Repository) CreateJournal(_ context.Context, activity domain.Activity, entry domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findByDate(entry.UserID, entry.Date) != nil {
		return domain.ErrJournalExists
	}
	r.appendActivity(activity)
	r.journals[entry.ID] = entry
	r.record(events.TypeJournalSaved, journalEvent(entry, true))
	return nil
}

// FindJournalByDate implements domain.JournalRepository.
func (r *Repository) FindJournalByDate(_ context.Context, userID string, date time.Time) (*domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByDate(userID, date), nil
}

func (r *Repository) findByDate(userID string, date time.Time) *domain.JournalEntry {
	for _, entry := range r.journals {
		if entry.UserID == userID && entry.Date.Equal(date) {
			found := entry
			return &found
		}
	}
	return nil
}

// GetJournal implements domain.JournalRepository.
func (r *Repository) GetJournal(_ context.Context, userID, id string) (*domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.journals[id]
	if !ok || entry.UserID != userID {
		return nil, nil
	}
	return &entry, nil
}

// UpdateJournal implements domain.JournalRepository.
func (r *Repository) UpdateJournal(_ context.Context, userID string, update domain.JournalEntry, today time.Time) (*domain.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.journals[update.ID]
	if !ok || entry.UserID != userID {
		return nil, domain.ErrJournalNotFound
	}
	if !entry.Date.Equal(today) {
		return nil, domain.ErrJournalLocked
	}

	entry.Mood = update.Mood
	entry.SleepQuality = update.SleepQuality
	entry.Content = update.Content
	entry.UpdatedAt = update.UpdatedAt
	r.journals[entry.ID] = entry
	r.record(events.TypeJournalSaved, journalEvent(entry, false))
	return &entry, nil
}

// record must be called with mu held.
func (r *Repository) record(eventType string, payload interface{}) {
	if r.recording {
		r.events = append(r.events, Event{Type: eventType, Payload: payload})
	}
}

// Events returns a copy of the recorded events in emission order. It is empty
// unless the repository was built WithEventLog.
func (r *Repository) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.events...)
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
