package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"example.com/zenscape/internal/api"
)

var historyOpts struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent activities and the current streak",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		page, err := client.ListActivities(cmd.Context(), historyOpts.limit)
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		streak, err := client.Streak(cmd.Context())
		if err != nil {
			return fmt.Errorf("load streak: %w", err)
		}
		return printHistory(cmd.OutOrStdout(), page.Items, streak, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 10, "number of activities to show")
}

func printHistory(w io.Writer, items []api.ActivityView, streak int, now time.Time) error {
	unit := "days"
	if streak == 1 {
		unit = "day"
	}
	fmt.Fprintf(w, "Current streak: %d %s\n\n", streak, unit)
	if len(items) == 0 {
		fmt.Fprintln(w, "No activities yet.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tACTIVITY\tLOGGED")
	for _, item := range items {
		activity := item.ActivityType
		switch {
		case item.Frequency != nil:
			activity = fmt.Sprintf("%s (%d Hz)", activity, *item.Frequency)
		case item.Journal != nil:
			activity = fmt.Sprintf("%s (mood: %s, sleep: %s)", activity, item.Journal.MoodLabel, item.Journal.SleepLabel)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ActivityDate, activity, humanize.RelTime(item.CreatedAt, now, "ago", "from now"))
	}
	return tw.Flush()
}
