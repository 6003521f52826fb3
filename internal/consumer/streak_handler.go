package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"example.com/zenscape/internal/events"
)

// StreakInvalidator drops a user's cached streak.
type StreakInvalidator interface {
	InvalidateStreak(ctx context.Context, userID string) error
}

// StreakInvalidationHandler clears the cached streak whenever an activity is logged.
type StreakInvalidationHandler struct {
	cache StreakInvalidator
}

// NewStreakInvalidationHandler constructs the handler.
func NewStreakInvalidationHandler(cache StreakInvalidator) *StreakInvalidationHandler {
	return &StreakInvalidationHandler{cache: cache}
}

// Handle implements Handler. Other event types are ignored.
func (h *StreakInvalidationHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeActivityLogged {
		return nil
	}

	var payload events.ActivityLogged
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	userID := payload.UserID
	if userID == "" {
		userID = msg.UserID
	}
	if userID == "" {
		return errors.New("activity event without user id")
	}
	return h.cache.InvalidateStreak(ctx, userID)
}

// MultiHandler runs every handler and joins their errors.
type MultiHandler []Handler

// Handle implements Handler.
func (m MultiHandler) Handle(ctx context.Context, msg Message) error {
	var err error
	for _, h := range m {
		err = errors.Join(err, h.Handle(ctx, msg))
	}
	return err
}
