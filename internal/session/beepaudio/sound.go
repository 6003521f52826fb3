package beepaudio

import (
	"errors"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

var errSoundClosed = errors.New("sound closed")

// Sound is a buffered track attached to the speaker mixer. All streamer state is
// guarded by the speaker lock.
type Sound struct {
	source   beep.StreamSeeker
	loop     *loopStreamer
	volume   *effects.Volume
	ctrl     *beep.Ctrl
	length   time.Duration
	attached bool
	closed   bool
}

func newSound(buffer *beep.Buffer, outputRate beep.SampleRate) *Sound {
	source := buffer.Streamer(0, buffer.Len())
	loop := &loopStreamer{src: source}

	var chain beep.Streamer = loop
	if rate := buffer.Format().SampleRate; rate != outputRate {
		chain = beep.Resample(4, rate, outputRate, chain)
	}

	volume := &effects.Volume{Streamer: chain, Base: 2}
	return &Sound{
		source: source,
		loop:   loop,
		volume: volume,
		ctrl:   &beep.Ctrl{Streamer: volume, Paused: true},
		length: buffer.Format().SampleRate.D(buffer.Len()),
	}
}

// Play resumes output, attaching the sound to the mixer on first use.
func (s *Sound) Play() error {
	speaker.Lock()
	if s.closed {
		speaker.Unlock()
		return errSoundClosed
	}
	s.ctrl.Paused = false
	attach := !s.attached
	s.attached = true
	speaker.Unlock()

	if attach {
		speaker.Play(s.ctrl)
	}
	return nil
}

// Pause holds the current position.
func (s *Sound) Pause() error {
	speaker.Lock()
	defer speaker.Unlock()
	s.ctrl.Paused = true
	return nil
}

// Stop pauses and rewinds to the start.
func (s *Sound) Stop() error {
	speaker.Lock()
	defer speaker.Unlock()
	s.ctrl.Paused = true
	s.loop.finished = false
	return s.source.Seek(0)
}

// SetVolume maps a linear level in [0,1] onto the base-2 volume effect.
func (s *Sound) SetVolume(level float64) error {
	gain, silent := volumeExponent(level)
	speaker.Lock()
	defer speaker.Unlock()
	s.volume.Volume = gain
	s.volume.Silent = silent
	return nil
}

// SetLooping toggles seek-to-start at the end of the track.
func (s *Sound) SetLooping(loop bool) error {
	speaker.Lock()
	defer speaker.Unlock()
	s.loop.loop = loop
	return nil
}

// Duration is the decoded length.
func (s *Sound) Duration() time.Duration { return s.length }

// Close detaches the sound from the mixer.
func (s *Sound) Close() error {
	speaker.Lock()
	defer speaker.Unlock()
	s.closed = true
	s.ctrl.Streamer = nil
	return nil
}

func volumeExponent(level float64) (float64, bool) {
	if level <= 0 {
		return 0, true
	}
	if level > 1 {
		level = 1
	}
	return math.Log2(level), false
}

// loopStreamer seeks back to the start when the source drains and looping is
// on. Otherwise it emits silence so the sound stays attached to the mixer.
type loopStreamer struct {
	src      beep.StreamSeeker
	loop     bool
	finished bool
}

func (l *loopStreamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) && !l.finished {
		sn, ok := l.src.Stream(samples[n:])
		n += sn
		if ok && sn > 0 {
			continue
		}
		if !l.loop || l.src.Len() == 0 {
			l.finished = true
			break
		}
		if err := l.src.Seek(0); err != nil {
			l.finished = true
		}
	}
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (l *loopStreamer) Err() error { return l.src.Err() }
