package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"example.com/zenscape/internal/api"
	"example.com/zenscape/internal/catalog"
	"example.com/zenscape/internal/domain"
	"example.com/zenscape/internal/session"
	"example.com/zenscape/internal/session/beepaudio"
)

var playOpts struct {
	minutes int
}

var playCmd = &cobra.Command{
	Use:   "play <track-id>",
	Short: "Play a timed meditation session",
	Long: `Play a track for a fixed number of minutes. The volume fades in at the start
and out at the end. Press Ctrl+C to stop early; an early stop is not logged.

When --token is set a completed session is recorded as an activity.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().IntVarP(&playOpts.minutes, "minutes", "m", 10, "session length in minutes")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	track, ok := cat.Track(args[0])
	if !ok {
		return fmt.Errorf("unknown track %q (see `zenscape tracks`)", args[0])
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := beepaudio.NewLoader(cfg.AudioCacheDir, beepaudio.WithLogger(logger))
	defer loader.Close()
	player := session.NewPlayer(loader, session.WithLogger(logger))
	defer player.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s - %d min\n", track.Title, playOpts.minutes)

	completed, err := playSession(ctx, player, sessionTrack(track), playOpts.minutes, out, time.Second)
	if err != nil {
		return err
	}
	if !completed {
		fmt.Fprintln(out, "\nsession stopped")
		return nil
	}
	fmt.Fprintln(out, "\nsession complete")

	if globalOpts.token == "" {
		return nil
	}
	// The session already happened; a logging failure is reported but not fatal.
	logCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := newClient().LogActivity(logCtx, completionRequest(track)); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "could not log session: %v\n", err)
	}
	return nil
}

// playSession runs one timed session and reports whether it reached its target.
// Cancelling ctx stops playback without completing.
func playSession(ctx context.Context, player *session.Player, track session.Track, minutes int, out io.Writer, refresh time.Duration) (bool, error) {
	done := make(chan struct{})
	var once sync.Once
	player.OnComplete(func() { once.Do(func() { close(done) }) })

	if err := player.Load(ctx, track, minutes); err != nil {
		if errors.Is(err, beepaudio.ErrUnsupportedSource) {
			return false, fmt.Errorf("track %q cannot be played from the terminal: %w", track.ID, err)
		}
		return false, err
	}
	if err := player.Start(ctx); err != nil {
		return false, err
	}

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()
	printRemaining(out, player.Remaining())
	for {
		select {
		case <-done:
			printRemaining(out, 0)
			return true, nil
		case <-ctx.Done():
			return false, player.Stop(context.Background())
		case <-ticker.C:
			printRemaining(out, player.Remaining())
		}
	}
}

func printRemaining(out io.Writer, remaining time.Duration) {
	fmt.Fprintf(out, "\r%s remaining ", catalog.FormatDuration(int(remaining.Seconds())))
}

func sessionTrack(t catalog.Track) session.Track {
	url := t.URL
	if t.Path == "" && t.YouTubeURL != "" {
		url = t.YouTubeURL
	}
	return session.Track{
		ID:       t.ID,
		Title:    t.Title,
		URL:      url,
		Duration: time.Duration(t.Duration) * time.Second,
		Loop:     session.LoopPolicy(t.Loop),
	}
}

func completionRequest(t catalog.Track) api.LogActivityRequest {
	if t.Frequency > 0 {
		freq := t.Frequency
		return api.LogActivityRequest{ActivityType: string(domain.ActivityFrequencyMeditation), Frequency: &freq}
	}
	return api.LogActivityRequest{ActivityType: string(domain.ActivityMeditation)}
}
