package outbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	m := NewDLQManager(nil, 0, 0)
	assert.Equal(t, 5, m.maxRetries)

	cases := map[int]time.Duration{
		0:   time.Minute,
		1:   time.Minute,
		2:   2 * time.Minute,
		4:   8 * time.Minute,
		7:   time.Hour,
		100: time.Hour,
	}
	for attempt, want := range cases {
		assert.Equal(t, want, m.backoffDelay(attempt), "attempt %d", attempt)
	}
}
