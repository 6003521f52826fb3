package domain

import "errors"

var (
	// ErrEmailTaken is returned when signing up with an address already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when sign-in fails for any reason.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail rejects malformed addresses at sign-up.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrUserNotFound is returned when a user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidActivityType rejects activity types outside the known set.
	ErrInvalidActivityType = errors.New("invalid activity type")
	// ErrInvalidRating rejects mood or sleep values outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrJournalNotFound is returned when an entry does not exist for the caller.
	ErrJournalNotFound = errors.New("journal entry not found")
	// ErrJournalLocked is returned when updating an entry from a previous day.
	ErrJournalLocked = errors.New("journal entry can only be edited on the day it was written")
)

// ErrJournalExists is returned by repositories when today's entry was created concurrently.
var ErrJournalExists = errors.New("journal entry already exists for date")
