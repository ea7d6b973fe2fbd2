package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/app"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <doc-id>",
	Short: "List the archived versions of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return runVersions(ctx, a, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(ctx context.Context, a *app.App, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", rawID, err)
	}

	current, err := a.Documents.GetByID(ctx, id)
	if err != nil {
		return err
	}
	versions, err := a.Documents.ListVersions(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s (current version %d)\n", current.Title, current.VersionNumber)
	if len(versions) == 0 {
		fmt.Println("No archived versions.")
		return nil
	}
	for _, v := range versions {
		fmt.Printf("  v%d  archived %s  %d chars\n",
			v.VersionNumber, v.ArchivedAt.Format("2006-01-02 15:04"), len(v.Content))
	}
	return nil
}
