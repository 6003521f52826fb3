package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type volumeLog struct {
	mu     sync.Mutex
	values []float64
}

func (l *volumeLog) apply(v float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, v)
	return nil
}

func (l *volumeLog) snapshot() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]float64(nil), l.values...)
}

func TestFaderDuration(t *testing.T) {
	f := DefaultFader()
	assert.Equal(t, 1400*time.Millisecond, f.Duration(0.1, 0.8).Round(time.Millisecond))
	assert.Equal(t, 1600*time.Millisecond, f.Duration(0.8, 0).Round(time.Millisecond))
	assert.Equal(t, time.Duration(0), Fader{}.Duration(0, 1))
}

func TestFaderZeroRateAppliesTarget(t *testing.T) {
	var log volumeLog
	require.NoError(t, Fader{}.Fade(context.Background(), 0.1, 0.8, log.apply))
	assert.Equal(t, []float64{0.8}, log.snapshot())
}

func TestFaderStepsTowardsTarget(t *testing.T) {
	clock := newManualClock()
	f := Fader{Rate: 0.5, Step: 100 * time.Millisecond, Easing: Linear, Clock: clock}

	var log volumeLog
	done := make(chan error, 1)
	go func() { done <- f.Fade(context.Background(), 0, 0.5, log.apply) }()

	require.Eventually(t, func() bool { return clock.tickerCount() == 1 }, time.Second, time.Millisecond)
	for i := 0; i < 10; i++ {
		require.True(t, clock.tick(100*time.Millisecond, time.Second))
	}
	require.NoError(t, <-done)

	values := log.snapshot()
	require.Len(t, values, 11)
	assert.InDelta(t, 0, values[0], 1e-9)
	assert.InDelta(t, 0.5, values[len(values)-1], 1e-9)
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}
}

func TestFaderCancelSnapsToTarget(t *testing.T) {
	clock := newManualClock()
	f := Fader{Rate: 0.1, Step: 100 * time.Millisecond, Easing: EaseInOut, Clock: clock}

	ctx, cancel := context.WithCancel(context.Background())
	var log volumeLog
	done := make(chan error, 1)
	go func() { done <- f.Fade(ctx, 0.8, 0, log.apply) }()

	require.Eventually(t, func() bool { return clock.tickerCount() == 1 }, time.Second, time.Millisecond)
	require.True(t, clock.tick(100*time.Millisecond, time.Second))
	cancel()
	require.NoError(t, <-done)

	values := log.snapshot()
	assert.InDelta(t, 0.8, values[0], 1e-9)
	assert.InDelta(t, 0, values[len(values)-1], 1e-9)
}

func TestEaseInOutEndpoints(t *testing.T) {
	assert.InDelta(t, 0, EaseInOut(0), 1e-9)
	assert.InDelta(t, 0.5, EaseInOut(0.5), 1e-9)
	assert.InDelta(t, 1, EaseInOut(1), 1e-9)
}
