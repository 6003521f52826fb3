package session

import (
	"context"
	"math"
	"time"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(progress float64) float64

// Linear is the identity easing.
func Linear(p float64) float64 { return p }

// EaseInOut is a smoothstep curve.
func EaseInOut(p float64) float64 { return p * p * (3 - 2*p) }

// Fader moves volume between two levels at a constant rate, sampled by a single
// ticker. A zero Rate applies the target immediately.
type Fader struct {
	// Rate is the volume change per second.
	Rate float64
	// Step is the sampling interval.
	Step   time.Duration
	Easing Easing
	Clock  Clock
}

// DefaultFader changes volume by 0.05 every 100ms.
func DefaultFader() Fader {
	return Fader{Rate: 0.5, Step: 100 * time.Millisecond, Easing: Linear, Clock: SystemClock{}}
}

// Duration reports how long a fade between from and to takes.
func (f Fader) Duration(from, to float64) time.Duration {
	if f.Rate <= 0 {
		return 0
	}
	return time.Duration(math.Abs(to-from) / f.Rate * float64(time.Second))
}

// Fade calls apply with successive volumes from from to to, finishing with
// exactly to. Cancelling ctx jumps straight to to.
func (f Fader) Fade(ctx context.Context, from, to float64, apply func(float64) error) error {
	total := f.Duration(from, to)
	if total <= 0 || f.Step <= 0 {
		return apply(to)
	}
	easing := f.Easing
	if easing == nil {
		easing = Linear
	}
	clock := f.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	start := clock.Now()
	ticker := clock.NewTicker(f.Step)
	defer ticker.Stop()

	if err := apply(from); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return apply(to)
		case <-ticker.C():
		}

		progress := float64(clock.Now().Sub(start)) / float64(total)
		if progress >= 1 {
			return apply(to)
		}
		if err := apply(from + (to-from)*easing(clamp01(progress))); err != nil {
			return err
		}
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
