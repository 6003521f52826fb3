package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/zenscape/internal/chat"
	"example.com/zenscape/internal/domain"
)

// SignUpRequest is the payload for POST /v1/auth/signup.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate ensures request correctness.
func (r SignUpRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// SignInRequest is the payload for POST /v1/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserView is the public shape of an account.
type UserView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionResponse is returned by sign-up, sign-in and session lookups.
type SessionResponse struct {
	User      UserView  `json:"user"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LogActivityRequest is the payload for POST /v1/activities.
type LogActivityRequest struct {
	ActivityType string `json:"activity_type"`
	Frequency    *int   `json:"frequency,omitempty"`
	ActivityDate string `json:"activity_date,omitempty"`
}

// ActivityView exposes a logged activity.
type ActivityView struct {
	ID           string       `json:"id"`
	ActivityType string       `json:"activity_type"`
	Frequency    *int         `json:"frequency,omitempty"`
	ActivityDate string       `json:"activity_date"`
	CreatedAt    time.Time    `json:"created_at"`
	Journal      *JournalView `json:"journal,omitempty"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items      []ActivityView `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// StreakResponse reports consecutive days with at least one activity.
type StreakResponse struct {
	CurrentStreak int `json:"current_streak"`
}

// JournalRequest is the payload for creating or updating a journal entry.
type JournalRequest struct {
	Mood         int    `json:"mood"`
	SleepQuality int    `json:"sleep_quality"`
	Content      string `json:"content"`
}

// JournalView exposes a journal entry with its rating labels.
type JournalView struct {
	ID           string    `json:"id"`
	Mood         int       `json:"mood"`
	MoodLabel    string    `json:"mood_label"`
	SleepQuality int       `json:"sleep_quality"`
	SleepLabel   string    `json:"sleep_label"`
	Content      string    `json:"content"`
	Date         string    `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Editable     bool      `json:"editable"`
}

// ChatRequest carries the conversation so far.
type ChatRequest struct {
	Messages []chat.Message `json:"messages"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toUserView(u domain.User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		CreatedAt:   u.CreatedAt,
	}
}

func toActivityView(a domain.Activity, today time.Time) ActivityView {
	view := ActivityView{
		ID:           a.ID,
		ActivityType: string(a.Type),
		Frequency:    a.Frequency,
		ActivityDate: a.Date.Format(domain.DateLayout),
		CreatedAt:    a.CreatedAt,
	}
	if a.Journal != nil {
		j := toJournalView(*a.Journal, today)
		view.Journal = &j
	}
	return view
}

func toJournalView(e domain.JournalEntry, today time.Time) JournalView {
	return JournalView{
		ID:           e.ID,
		Mood:         e.Mood,
		MoodLabel:    domain.MoodLabel(e.Mood),
		SleepQuality: e.SleepQuality,
		SleepLabel:   domain.SleepLabel(e.SleepQuality),
		Content:      e.Content,
		Date:         e.Date.Format(domain.DateLayout),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Editable:     e.Date.Equal(today),
	}
}
