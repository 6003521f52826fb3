package domain

import (
	"sort"
	"time"
)

// ActivityType enumerates the kinds of wellness activity a user can log.
type ActivityType string

const (
	ActivityMeditation          ActivityType = "meditation"
	ActivityJournal             ActivityType = "journal"
	ActivityFrequencyMeditation ActivityType = "frequency_meditation"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityMeditation, ActivityJournal, ActivityFrequencyMeditation:
		return true
	}
	return false
}

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Activity is an append-only log row. Journal activities share their id with the entry.
type Activity struct {
	ID        string
	UserID    string
	Type      ActivityType
	Frequency *int
	Date      time.Time
	CreatedAt time.Time

	Journal *JournalEntry
}

// Cursor models the pagination token for activity listings.
type Cursor struct {
	Date      time.Time
	CreatedAt time.Time
	ID        string
}

// ActivityFilter narrows an activity listing.
type ActivityFilter struct {
	Date   *time.Time
	Cursor *Cursor
	Limit  int
}

// LogActivityInput captures a completed session or manual log request.
type LogActivityInput struct {
	UserID    string
	Type      ActivityType
	Frequency *int
	Date      *time.Time
}

// CalendarDate reduces t to its calendar day in loc, expressed as UTC midnight.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// SortActivities orders activities newest first by (date, created_at, id).
func SortActivities(items []Activity) {
	sort.SliceStable(items, func(i, j int) bool {
		return ActivityBefore(items[j], items[i])
	})
}

// ActivityBefore reports whether a sorts strictly before b in ascending key order.
func ActivityBefore(a, b Activity) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
