// Package session plays a single track for a bounded wall-clock duration and
// signals completion exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var (
	// ErrSessionActive is returned by Load while a load or playback is in progress.
	ErrSessionActive = errors.New("a session is already loading or playing")
	// ErrInvalidDuration rejects non-positive session lengths.
	ErrInvalidDuration = errors.New("session duration must be positive")
	// ErrInvalidState is returned for operations that do not apply to the current state.
	ErrInvalidState = errors.New("operation not valid in current session state")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("player closed")
)

// Default volumes and countdown granularity.
const (
	DefaultStartVolume = 0.1
	DefaultPlayVolume  = 0.8
	DefaultTick        = time.Second
)

// Option configures optional behaviour for the Player.
type Option func(*Player)

// WithLogger overrides the logger used for swallowed audio errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// WithClock drives the countdown and fades from clock.
func WithClock(clock Clock) Option {
	return func(p *Player) {
		p.clock = clock
	}
}

// WithFader replaces the default fade curve. Fades always run on the player's clock.
func WithFader(fader Fader) Option {
	return func(p *Player) {
		p.fader = fader
	}
}

// WithVolumes sets the volume playback starts at and the level it fades up to.
func WithVolumes(start, play float64) Option {
	return func(p *Player) {
		p.startVolume = start
		p.playVolume = play
	}
}

// WithTick sets the countdown granularity.
func WithTick(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.tick = d
		}
	}
}

// Player runs one timed session at a time. It owns its sound cache and countdown
// and is safe for concurrent use.
type Player struct {
	loader      Loader
	clock       Clock
	fader       Fader
	tick        time.Duration
	startVolume float64
	playVolume  float64
	logger      *log.Logger

	// opMu serialises transitions that touch the sound handle.
	opMu sync.Mutex

	mu            sync.Mutex
	state         State
	closed        bool
	track         Track
	sound         Sound
	sounds        map[string]Sound
	target        int
	elapsed       int
	volume        float64
	muted         bool
	session       uint64
	countdownStop chan struct{}
	onComplete    func()
}

// NewPlayer constructs a Player that acquires sounds through loader.
func NewPlayer(loader Loader, opts ...Option) *Player {
	p := &Player{
		loader:      loader,
		clock:       SystemClock{},
		fader:       DefaultFader(),
		tick:        DefaultTick,
		startVolume: DefaultStartVolume,
		playVolume:  DefaultPlayVolume,
		logger:      log.New(log.Writer(), "[session] ", log.LstdFlags|log.Lshortfile),
		sounds:      make(map[string]Sound),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.fader.Clock = p.clock
	return p
}

// OnComplete registers the callback fired when a session reaches its target.
// It replaces any previous callback and runs outside the player's locks.
func (p *Player) OnComplete(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

// Load prepares track for a session of the given length. It refuses while a load
// or playback is in progress and leaves that session untouched.
func (p *Player) Load(ctx context.Context, track Track, minutes int) error {
	if minutes <= 0 {
		return ErrInvalidDuration
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.state.active() {
		p.mu.Unlock()
		return ErrSessionActive
	}
	previous := p.state
	p.state = StateLoading
	sound, cached := p.sounds[track.ID]
	p.mu.Unlock()

	fail := func(err error) error {
		p.mu.Lock()
		p.state = previous
		p.mu.Unlock()
		return err
	}

	if !cached {
		loaded, err := p.loader.Load(ctx, track)
		if err != nil {
			return fail(fmt.Errorf("load track %s: %w", track.ID, err))
		}
		sound = loaded
	}

	length := time.Duration(minutes) * time.Minute
	if err := sound.Stop(); err != nil {
		return fail(fmt.Errorf("rewind track %s: %w", track.ID, err))
	}
	if err := sound.SetLooping(shouldLoop(track, sound, length)); err != nil {
		return fail(fmt.Errorf("set looping on %s: %w", track.ID, err))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		if !cached {
			_ = sound.Close()
		}
		return ErrClosed
	}
	p.sounds[track.ID] = sound
	p.track = track
	p.sound = sound
	p.target = minutes * 60
	p.elapsed = 0
	p.volume = 0
	p.muted = false
	p.session++
	p.state = StateReady
	return nil
}

// Start begins playback at the start volume, fades up and then starts the countdown.
func (p *Player) Start(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.state != StateReady {
		p.mu.Unlock()
		return ErrInvalidState
	}
	// Load refuses while starting, so the handle cannot be swapped under us.
	p.state = StateStarting
	sound := p.sound
	p.mu.Unlock()

	fail := func(err error) error {
		p.mu.Lock()
		p.state = StateReady
		p.mu.Unlock()
		return err
	}
	if err := sound.SetVolume(p.startVolume); err != nil {
		return fail(fmt.Errorf("set volume: %w", err))
	}
	if err := sound.Play(); err != nil {
		return fail(fmt.Errorf("play: %w", err))
	}

	p.mu.Lock()
	p.volume = p.startVolume
	p.state = StatePlaying
	p.mu.Unlock()
	startedCounter.Inc()

	if err := p.fadeTo(ctx, sound, p.playVolume); err != nil {
		p.logger.Printf("fade in failed: %v", err)
	}
	p.startCountdown()
	return nil
}

// Pause freezes the countdown, fades down and pauses the sound.
func (p *Player) Pause(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.state != StatePlaying {
		p.mu.Unlock()
		return ErrInvalidState
	}
	p.stopCountdownLocked()
	sound := p.sound
	p.mu.Unlock()

	if err := p.fadeTo(ctx, sound, 0); err != nil {
		p.logger.Printf("fade out failed: %v", err)
	}
	if err := sound.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	p.mu.Lock()
	p.state = StatePaused
	p.mu.Unlock()
	return nil
}

// Resume plays the sound, fades back up and continues the countdown.
func (p *Player) Resume(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.state != StatePaused {
		p.mu.Unlock()
		return ErrInvalidState
	}
	sound := p.sound
	p.mu.Unlock()

	if err := sound.Play(); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	p.mu.Lock()
	p.state = StatePlaying
	p.mu.Unlock()

	if err := p.fadeTo(ctx, sound, p.audibleVolume()); err != nil {
		p.logger.Printf("fade in failed: %v", err)
	}

	p.mu.Lock()
	// A completion already reached before the pause is still pending.
	reached := p.elapsed >= p.target
	p.mu.Unlock()
	if !reached {
		p.startCountdown()
	}
	return nil
}

// ToggleMute fades to or from silence without touching the countdown. It
// returns the new mute state.
func (p *Player) ToggleMute(ctx context.Context) (bool, error) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.state != StatePlaying && p.state != StatePaused {
		p.mu.Unlock()
		return false, ErrInvalidState
	}
	p.muted = !p.muted
	muted := p.muted
	playing := p.state == StatePlaying
	sound := p.sound
	p.mu.Unlock()

	// A paused sound is already silent; Resume restores the right level.
	if playing {
		if err := p.fadeTo(ctx, sound, p.audibleVolume()); err != nil {
			return muted, fmt.Errorf("fade: %w", err)
		}
	}
	return muted, nil
}

// Stop fades out, stops and rewinds the sound and clears the countdown. The
// sound stays cached. Stopping before completion never fires the callback.
func (p *Player) Stop(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	switch p.state {
	case StatePlaying, StatePaused:
	case StateReady:
		p.session++
		p.state = StateStopped
		p.mu.Unlock()
		return nil
	default:
		p.mu.Unlock()
		return nil
	}
	p.session++
	p.stopCountdownLocked()
	sound := p.sound
	playing := p.state == StatePlaying
	p.mu.Unlock()

	err := p.halt(ctx, sound, playing)

	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()
	stoppedCounter.Inc()
	return err
}

// Close stops playback and releases every cached sound.
func (p *Player) Close() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.session++
	p.stopCountdownLocked()
	sounds := p.sounds
	p.sounds = make(map[string]Sound)
	p.sound = nil
	p.state = StateIdle
	p.mu.Unlock()

	var err error
	for id, sound := range sounds {
		if stopErr := sound.Stop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("stop %s: %w", id, stopErr))
		}
		if closeErr := sound.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close %s: %w", id, closeErr))
		}
	}
	return err
}

// State returns the lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Elapsed returns the counted session time.
func (p *Player) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.elapsed) * time.Second
}

// Remaining returns the time left until completion.
func (p *Player) Remaining() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.elapsed >= p.target {
		return 0
	}
	return time.Duration(p.target-p.elapsed) * time.Second
}

// Target returns the session length.
func (p *Player) Target() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Duration(p.target) * time.Second
}

// Muted reports whether output is muted.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Volume returns the last volume applied to the sound.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Track returns the loaded track.
func (p *Player) Track() Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

func (p *Player) audibleVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted {
		return 0
	}
	return p.playVolume
}

func (p *Player) fadeTo(ctx context.Context, sound Sound, to float64) error {
	p.mu.Lock()
	from := p.volume
	p.mu.Unlock()

	return p.fader.Fade(ctx, from, to, func(v float64) error {
		if err := sound.SetVolume(v); err != nil {
			return err
		}
		p.mu.Lock()
		p.volume = v
		p.mu.Unlock()
		return nil
	})
}

// halt silences and rewinds sound. Audio errors are logged, the last one returned.
func (p *Player) halt(ctx context.Context, sound Sound, playing bool) error {
	if playing {
		if err := p.fadeTo(ctx, sound, 0); err != nil {
			p.logger.Printf("fade out failed: %v", err)
		}
	}
	if err := sound.Stop(); err != nil {
		p.logger.Printf("stop failed: %v", err)
		return fmt.Errorf("stop: %w", err)
	}
	return nil
}

func (p *Player) startCountdown() {
	ticker := p.clock.NewTicker(p.tick)
	stop := make(chan struct{})

	p.mu.Lock()
	p.stopCountdownLocked()
	p.countdownStop = stop
	p.mu.Unlock()

	go p.runCountdown(ticker, stop)
}

func (p *Player) stopCountdownLocked() {
	if p.countdownStop != nil {
		close(p.countdownStop)
		p.countdownStop = nil
	}
}

func (p *Player) runCountdown(ticker Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}

		p.mu.Lock()
		if p.countdownStop != stop || p.state != StatePlaying {
			p.mu.Unlock()
			return
		}
		p.elapsed++
		reached := p.elapsed >= p.target
		session := p.session
		if reached {
			p.stopCountdownLocked()
		}
		p.mu.Unlock()

		if reached {
			p.complete(session)
			return
		}
	}
}

// complete stops the session that reached its target and fires the callback,
// unless the session was stopped or replaced in the meantime.
func (p *Player) complete(session uint64) {
	p.opMu.Lock()

	p.mu.Lock()
	if p.session != session || (p.state != StatePlaying && p.state != StatePaused) {
		p.mu.Unlock()
		p.opMu.Unlock()
		return
	}
	sound := p.sound
	playing := p.state == StatePlaying
	p.mu.Unlock()

	_ = p.halt(context.Background(), sound, playing)

	p.mu.Lock()
	p.state = StateCompleted
	p.session++
	callback := p.onComplete
	p.mu.Unlock()
	p.opMu.Unlock()

	completedCounter.Inc()
	if callback != nil {
		callback()
	}
}
