package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"example.com/zenscape/internal/catalog"
)

var catalogOpts struct {
	category string
}

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "List the bundled tracks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		return printTracks(cmd.OutOrStdout(), cat.Tracks(catalogOpts.category))
	},
}

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Print inspirational quotes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		printQuotes(cmd.OutOrStdout(), cat.Quotes(catalogOpts.category))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tracksCmd, quotesCmd)
	tracksCmd.Flags().StringVar(&catalogOpts.category, "category", "", "only list tracks in this category (hertz, ambient, frequency)")
	quotesCmd.Flags().StringVar(&catalogOpts.category, "category", "", "only print quotes in this category")
}

func printTracks(w io.Writer, tracks []catalog.Track) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tDURATION\tLOOP")
	for _, t := range tracks {
		title := t.Title
		if t.Frequency > 0 {
			title = fmt.Sprintf("%s (%d Hz)", t.Title, t.Frequency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, title, t.Category, t.FormattedDuration(), t.Loop)
	}
	return tw.Flush()
}

func printQuotes(w io.Writer, quotes []catalog.Quote) {
	for _, q := range quotes {
		fmt.Fprintf(w, "\"%s\"\n  - %s [%s]\n\n", q.Text, q.Author, q.Category)
	}
}
