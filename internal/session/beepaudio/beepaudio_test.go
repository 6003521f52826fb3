package beepaudio

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/zenscape/internal/session"
)

type rampStreamer struct {
	samples []float64
	pos     int
}

func (r *rampStreamer) Stream(out [][2]float64) (int, bool) {
	if r.pos >= len(r.samples) {
		return 0, false
	}
	n := copy2(out, r.samples[r.pos:])
	r.pos += n
	return n, true
}

func copy2(out [][2]float64, in []float64) int {
	n := 0
	for n < len(out) && n < len(in) {
		out[n] = [2]float64{in[n], in[n]}
		n++
	}
	return n
}

func (r *rampStreamer) Err() error       { return nil }
func (r *rampStreamer) Len() int         { return len(r.samples) }
func (r *rampStreamer) Position() int    { return r.pos }
func (r *rampStreamer) Seek(p int) error { r.pos = p; return nil }

func left(samples [][2]float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s[0]
	}
	return out
}

func TestLoopStreamerRepeatsWhenLooping(t *testing.T) {
	l := &loopStreamer{src: &rampStreamer{samples: []float64{1, 2, 3}}, loop: true}

	buf := make([][2]float64, 7)
	n, ok := l.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 7, n)
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3, 1}, left(buf))
	assert.False(t, l.finished)
}

func TestLoopStreamerPadsSilenceWhenNotLooping(t *testing.T) {
	src := &rampStreamer{samples: []float64{1, 2, 3}}
	l := &loopStreamer{src: src}

	buf := make([][2]float64, 5)
	n, ok := l.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 5, n)
	assert.Equal(t, []float64{1, 2, 3, 0, 0}, left(buf))
	assert.True(t, l.finished)

	// Rewinding restarts output.
	require.NoError(t, src.Seek(0))
	l.finished = false
	_, _ = l.Stream(buf)
	assert.Equal(t, []float64{1, 2, 3, 0, 0}, left(buf))
}

func TestVolumeExponent(t *testing.T) {
	v, silent := volumeExponent(0)
	assert.True(t, silent)
	assert.Zero(t, v)

	v, silent = volumeExponent(1)
	assert.False(t, silent)
	assert.InDelta(t, 0, v, 1e-9)

	v, _ = volumeExponent(0.5)
	assert.InDelta(t, -1, v, 1e-9)

	v, _ = volumeExponent(3)
	assert.InDelta(t, 0, v, 1e-9, "levels above one are clamped")
}

func writeWAV(t *testing.T, dir, name string, samples int) string {
	t.Helper()
	file := filepath.Join(dir, name)
	f, err := os.Create(file)
	require.NoError(t, err)
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(samples), format))
	require.NoError(t, f.Close())
	return file
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	file := writeWAV(t, dir, "bowl.wav", 8000)

	buffer, err := decodeFile(file)
	require.NoError(t, err)
	assert.Equal(t, 8000, buffer.Len())
	assert.Equal(t, beep.SampleRate(8000), buffer.Format().SampleRate)

	sound := newSound(buffer, 8000)
	assert.Equal(t, time.Second, sound.Duration())

	_, err = decodeFile(filepath.Join(dir, "notes.txt"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bowl.flac"), []byte("x"), 0o600))
	_, err = decodeFile(filepath.Join(dir, "bowl.flac"))
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestFetchDownloadsOnce(t *testing.T) {
	source := writeWAV(t, t.TempDir(), "rain.wav", 800)
	payload, err := os.ReadFile(source)
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/audio/rain.wav" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	cacheDir := filepath.Join(t.TempDir(), "cache")
	loader := NewLoader(cacheDir, WithLogger(log.New(os.Stderr, "", 0)))
	track := session.Track{ID: "rain", URL: srv.URL + "/audio/rain.wav"}

	first, err := loader.fetch(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cacheDir, "rain.wav"), first)

	second, err := loader.fetch(context.Background(), track)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())

	cached, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, payload, cached)

	_, err = loader.fetch(context.Background(), session.Track{ID: "missing", URL: srv.URL + "/audio/missing.mp3"})
	assert.ErrorContains(t, err, "unexpected status 404")
	_, statErr := os.Stat(filepath.Join(cacheDir, "missing.mp3"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchRejectsUnsupportedSources(t *testing.T) {
	loader := NewLoader(t.TempDir())

	for _, raw := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"ftp://example.com/rain.mp3",
	} {
		_, err := loader.fetch(context.Background(), session.Track{ID: "x", URL: raw})
		assert.ErrorIs(t, err, ErrUnsupportedSource, raw)
	}

	local, err := loader.fetch(context.Background(), session.Track{ID: "local", URL: "/srv/audio/rain.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/audio/rain.mp3", local)
}
