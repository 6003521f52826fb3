// Package beepaudio provides session sound handles backed by the beep audio library.
package beepaudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"example.com/zenscape/internal/catalog"
	"example.com/zenscape/internal/session"
)

// ErrUnsupportedSource is returned for URLs that cannot be decoded locally, such
// as video links.
var ErrUnsupportedSource = errors.New("unsupported audio source")

// Option configures optional behaviour for the Loader.
type Option func(*Loader)

// WithHTTPClient overrides the client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithLogger overrides the loader logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// Loader downloads, decodes and buffers tracks. The speaker is initialised on
// the first successful decode and reused for every later sound.
type Loader struct {
	cacheDir string
	client   *http.Client
	logger   *log.Logger

	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
}

// NewLoader constructs a Loader that keeps downloads under cacheDir.
func NewLoader(cacheDir string, opts ...Option) *Loader {
	l := &Loader{
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 5 * time.Minute},
		logger:   log.New(log.Writer(), "[audio] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements session.Loader.
func (l *Loader) Load(ctx context.Context, track session.Track) (session.Sound, error) {
	file, err := l.fetch(ctx, track)
	if err != nil {
		return nil, err
	}

	buffer, err := decodeFile(file)
	if err != nil {
		return nil, err
	}

	rate, err := l.ensureSpeaker(buffer.Format().SampleRate)
	if err != nil {
		return nil, err
	}
	return newSound(buffer, rate), nil
}

// Close releases the speaker.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		speaker.Close()
		l.initialized = false
	}
}

// fetch resolves track to a local file, downloading remote audio into the cache
// directory once.
func (l *Loader) fetch(ctx context.Context, track session.Track) (string, error) {
	if catalog.ExtractYouTubeID(track.URL) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, track.URL)
	}

	u, err := url.Parse(track.URL)
	if err != nil {
		return "", fmt.Errorf("parse track url: %w", err)
	}
	switch u.Scheme {
	case "", "file":
		return u.Path, nil
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}

	ext := strings.ToLower(path.Ext(u.Path))
	target := filepath.Join(l.cacheDir, track.ID+ext)
	if info, err := os.Stat(target); err == nil && info.Size() > 0 {
		return target, nil
	}

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	if err := l.download(ctx, track.URL, target); err != nil {
		return "", err
	}
	l.logger.Printf("cached %s at %s", track.ID, target)
	return target, nil
}

func (l *Loader) download(ctx context.Context, rawURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close download: %w", err)
	}
	return os.Rename(tmp.Name(), target)
}

func (l *Loader) ensureSpeaker(rate beep.SampleRate) (beep.SampleRate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return l.sampleRate, nil
	}
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return 0, fmt.Errorf("initialise speaker: %w", err)
	}
	l.sampleRate = rate
	l.initialized = true
	return rate, nil
}

// decodeFile reads a whole mp3, wav or ogg file into memory.
func decodeFile(file string) (*beep.Buffer, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedSource, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(file), err)
	}
	defer func() { _ = streamer.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	return buffer, nil
}
