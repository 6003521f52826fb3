package session

import (
	"context"
	"time"
)

// LoopPolicy decides whether a track repeats within a session.
type LoopPolicy string

const (
	LoopAlways    LoopPolicy = "always"
	LoopIfShorter LoopPolicy = "if_shorter"
	LoopNever     LoopPolicy = "never"
)

// Track identifies the audio to play. Duration is the advertised length and is
// used when the decoded sound cannot report its own.
type Track struct {
	ID       string
	Title    string
	URL      string
	Duration time.Duration
	Loop     LoopPolicy
}

// Sound is a playable, cacheable audio handle.
type Sound interface {
	Play() error
	Pause() error
	// Stop halts playback and rewinds to the start.
	Stop() error
	SetVolume(volume float64) error
	SetLooping(loop bool) error
	// Duration is the decoded length, or zero when unknown.
	Duration() time.Duration
	Close() error
}

// Loader acquires sound handles for tracks.
type Loader interface {
	Load(ctx context.Context, track Track) (Sound, error)
}

// shouldLoop applies the track's loop policy to a session of the given length.
func shouldLoop(track Track, sound Sound, session time.Duration) bool {
	switch track.Loop {
	case LoopAlways:
		return true
	case LoopIfShorter:
		length := sound.Duration()
		if length <= 0 {
			length = track.Duration
		}
		return length < session
	}
	return false
}
