// Package cmd holds the draftwise CLI commands. Each command lives in its
// own file and registers itself with the root command in init().
package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/app"
	"github.com/draftwise/draftwise/internal/config"
	"github.com/draftwise/draftwise/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "draftwise",
	Short: "Draftwise - a versioned, searchable, citation-capable knowledge base",
	Long: `Draftwise ingests source documents into a versioned knowledge base,
searches them semantically or with a hybrid lexical+semantic ranking, and
builds numbered citation contexts for grounding generated text.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// withApp loads configuration, initializes the application, runs fn, and
// releases everything afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := app.Setup(cmd.Context(), cfg, newLogger())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(cmd.Context(), a)
}
