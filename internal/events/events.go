// Package events defines the payloads exchanged between the outbox dispatcher and consumers.
package events

import "time"

// Event types carried in the event_type header.
const (
	TypeActivityLogged = "activity.logged"
	TypeJournalSaved   = "journal.saved"
)

// Kafka header keys set on every published record.
const (
	HeaderEventType     = "event_type"
	HeaderUserID        = "user_id"
	HeaderSchemaSubject = "schema_subject"
)

// Kafka topics.
const (
	TopicActivity = "activity_events"
	TopicJournal  = "journal_events"
)

// ActivityLogged is emitted whenever an activity row is appended, including the
// row created alongside a new journal entry.
type ActivityLogged struct {
	ActivityID   string    `json:"activity_id"`
	UserID       string    `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	Frequency    *int      `json:"frequency,omitempty"`
	ActivityDate string    `json:"activity_date"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// JournalSaved is emitted when a journal entry is created or edited. Content is
// never carried on the bus.
type JournalSaved struct {
	EntryID      string    `json:"entry_id"`
	UserID       string    `json:"user_id"`
	Mood         int       `json:"mood"`
	SleepQuality int       `json:"sleep_quality"`
	ActivityDate string    `json:"activity_date"`
	Created      bool      `json:"created"`
	OccurredAt   time.Time `json:"occurred_at"`
}
