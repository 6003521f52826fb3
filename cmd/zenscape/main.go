// Package main provides the zenscape command-line companion.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"example.com/zenscape/internal/apiclient"
	"example.com/zenscape/internal/catalog"
	"example.com/zenscape/internal/config"
)

var (
	cfg        config.Config
	globalOpts struct {
		apiURL  string
		token   string
		verbose bool
	}
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "zenscape",
	Short: "Meditation sessions, sounds and quotes from the terminal",
	Long: `zenscape plays timed meditation sessions with ambient and frequency tracks,
browses the bundled quote collection and shows your activity history.

Completed sessions are logged to the zenscape API when --token is set.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logger = log.New(io.Discard, "", 0)
		if globalOpts.verbose {
			logger = log.New(os.Stderr, "[zenscape] ", log.LstdFlags|log.Lshortfile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.apiURL, "api", envOr("ZENSCAPE_API_URL", "http://localhost:8080"), "zenscape API base URL")
	rootCmd.PersistentFlags().StringVar(&globalOpts.token, "token", os.Getenv("ZENSCAPE_TOKEN"), "bearer token for the zenscape API")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false, "log diagnostics to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.AudioBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

func newClient() *apiclient.Client {
	return apiclient.New(globalOpts.apiURL, globalOpts.token)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
