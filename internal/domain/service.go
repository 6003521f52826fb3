// Package domain defines the business logic for zenscape users, activities and journals.
package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/zenscape/internal/auth"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// UserRepository persists accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
}

// ActivityRepository persists the activity log. CreateActivity records the
// activity.logged event in the same transaction.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity Activity) error
	ListActivities(ctx context.Context, userID string, filter ActivityFilter) ([]Activity, *Cursor, error)
	CurrentStreak(ctx context.Context, userID string, today time.Time) (int, error)
}

// JournalRepository persists journal entries. UpdateJournal applies the same-day
// guard and returns ErrJournalNotFound or ErrJournalLocked.
type JournalRepository interface {
	CreateJournal(ctx context.Context, activity Activity, entry JournalEntry) error
	FindJournalByDate(ctx context.Context, userID string, date time.Time) (*JournalEntry, error)
	GetJournal(ctx context.Context, userID, id string) (*JournalEntry, error)
	UpdateJournal(ctx context.Context, userID string, entry JournalEntry, today time.Time) (*JournalEntry, error)
}

// Repository is the full persistence surface used by Service.
type Repository interface {
	UserRepository
	ActivityRepository
	JournalRepository
}

// StreakCache memoises the streak for the current day.
type StreakCache interface {
	GetStreak(ctx context.Context, userID string, day time.Time) (int, bool, error)
	SetStreak(ctx context.Context, userID string, day time.Time, streak int, ttl time.Duration) error
	InvalidateStreak(ctx context.Context, userID string) error
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the timezone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithStreakCache enables streak caching.
func WithStreakCache(cache StreakCache) Option {
	return func(s *Service) {
		s.streaks = cache
	}
}

// WithLogger overrides the logger used for swallowed errors.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service orchestrates account, activity and journal workflows.
type Service struct {
	repo    Repository
	streaks StreakCache
	now     func() time.Time
	loc     *time.Location
	logger  *log.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		loc:    time.UTC,
		logger: log.New(log.Writer(), "[domain] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the service location.
func (s *Service) Today() time.Time {
	return CalendarDate(s.now(), s.loc)
}

// SignUp registers a new account.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*User, error) {
	email := normalizeEmail(input.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignIn verifies credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CurrentUser resolves the account behind a session.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// LogActivity appends an activity row. The date defaults to today.
func (s *Service) LogActivity(ctx context.Context, input LogActivityInput) (*Activity, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidActivityType
	}

	date := s.Today()
	if input.Date != nil {
		date = CalendarDate(*input.Date, time.UTC)
	}

	activity := Activity{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Type:      input.Type,
		Frequency: input.Frequency,
		Date:      date,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}
	s.invalidateStreak(ctx, input.UserID)
	return &activity, nil
}

// ListActivities returns the user's activities newest first.
func (s *Service) ListActivities(ctx context.Context, userID string, filter ActivityFilter) ([]Activity, *Cursor, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Date != nil {
		date := CalendarDate(*filter.Date, time.UTC)
		filter.Date = &date
	}
	return s.repo.ListActivities(ctx, userID, filter)
}

// CurrentStreak returns the user's streak, consulting the cache first.
func (s *Service) CurrentStreak(ctx context.Context, userID string) (int, error) {
	today := s.Today()

	if s.streaks != nil {
		streak, ok, err := s.streaks.GetStreak(ctx, userID, today)
		if err != nil {
			s.logger.Printf("streak cache read failed (user=%s): %v", userID, err)
		} else if ok {
			return streak, nil
		}
	}

	streak, err := s.repo.CurrentStreak(ctx, userID, today)
	if err != nil {
		return 0, fmt.Errorf("compute streak: %w", err)
	}

	if s.streaks != nil {
		if err := s.streaks.SetStreak(ctx, userID, today, streak, s.untilEndOfDay()); err != nil {
			s.logger.Printf("streak cache write failed (user=%s): %v", userID, err)
		}
	}
	return streak, nil
}

// SaveJournal creates today's entry or updates it when one already exists.
// The boolean reports whether a new entry was created.
func (s *Service) SaveJournal(ctx context.Context, input SaveJournalInput) (*JournalEntry, bool, error) {
	if !ValidRating(input.Mood) || !ValidRating(input.SleepQuality) {
		return nil, false, ErrInvalidRating
	}

	today := s.Today()
	existing, err := s.repo.FindJournalByDate(ctx, input.UserID, today)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		entry, err := s.update(ctx, input.UserID, existing.ID, input, today)
		return entry, false, err
	}

	now := s.now().UTC()
	activity := Activity{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Type:      ActivityJournal,
		Date:      today,
		CreatedAt: now,
	}
	entry := JournalEntry{
		ID:           activity.ID,
		UserID:       input.UserID,
		Mood:         input.Mood,
		SleepQuality: input.SleepQuality,
		Content:      input.Content,
		Date:         today,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateJournal(ctx, activity, entry); err != nil {
		if !errors.Is(err, ErrJournalExists) {
			return nil, false, err
		}
		// Lost a race with a concurrent save for the same day.
		existing, findErr := s.repo.FindJournalByDate(ctx, input.UserID, today)
		if findErr != nil || existing == nil {
			return nil, false, err
		}
		updated, updErr := s.update(ctx, input.UserID, existing.ID, input, today)
		return updated, false, updErr
	}

	s.invalidateStreak(ctx, input.UserID)
	return &entry, true, nil
}

// TodayJournal returns today's entry or ErrJournalNotFound.
func (s *Service) TodayJournal(ctx context.Context, userID string) (*JournalEntry, error) {
	entry, err := s.repo.FindJournalByDate(ctx, userID, s.Today())
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrJournalNotFound
	}
	return entry, nil
}

// GetJournal returns one of the user's entries.
func (s *Service) GetJournal(ctx context.Context, userID, id string) (*JournalEntry, error) {
	entry, err := s.repo.GetJournal(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrJournalNotFound
	}
	return entry, nil
}

// UpdateJournal applies the guarded update to an existing entry.
func (s *Service) UpdateJournal(ctx context.Context, userID, id string, input SaveJournalInput) (*JournalEntry, error) {
	if !ValidRating(input.Mood) || !ValidRating(input.SleepQuality) {
		return nil, ErrInvalidRating
	}
	return s.update(ctx, userID, id, input, s.Today())
}

func (s *Service) update(ctx context.Context, userID, id string, input SaveJournalInput, today time.Time) (*JournalEntry, error) {
	return s.repo.UpdateJournal(ctx, userID, JournalEntry{
		ID:           id,
		UserID:       userID,
		Mood:         input.Mood,
		SleepQuality: input.SleepQuality,
		Content:      input.Content,
		UpdatedAt:    s.now().UTC(),
	}, today)
}

func (s *Service) invalidateStreak(ctx context.Context, userID string) {
	if s.streaks == nil {
		return
	}
	if err := s.streaks.InvalidateStreak(ctx, userID); err != nil {
		s.logger.Printf("streak cache invalidate failed (user=%s): %v", userID, err)
	}
}

func (s *Service) untilEndOfDay() time.Duration {
	now := s.now().In(s.loc)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, s.loc)
	return midnight.Sub(now)
}
