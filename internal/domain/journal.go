package domain

import "time"

// JournalEntry is the mood/sleep/free-text record attached to a journal activity.
type JournalEntry struct {
	ID           string
	UserID       string
	Mood         int
	SleepQuality int
	Content      string
	Date         time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SaveJournalInput captures the journal form.
type SaveJournalInput struct {
	UserID       string
	Mood         int
	SleepQuality int
	Content      string
}

var moodLabels = [...]string{"Very Sad", "Sad", "Neutral", "Happy", "Very Happy"}

var sleepLabels = [...]string{"Poor", "Fair", "Good", "Very Good", "Excellent"}

// MoodLabel returns the human label for a 1..5 mood rating.
func MoodLabel(rating int) string {
	if rating < 1 || rating > len(moodLabels) {
		return ""
	}
	return moodLabels[rating-1]
}

// SleepLabel returns the human label for a 1..5 sleep rating.
func SleepLabel(rating int) string {
	if rating < 1 || rating > len(sleepLabels) {
		return ""
	}
	return sleepLabels[rating-1]
}

// ValidRating reports whether rating is within 1..5.
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
