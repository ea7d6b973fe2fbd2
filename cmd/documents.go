package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/app"
	"github.com/draftwise/draftwise/internal/document"
)

var documentsListFlags struct {
	author string
	tags   []string
	limit  int
	offset int
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage stored documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return runDocumentsList(ctx, a)
		})
	},
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Show one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return runDocumentsShow(ctx, a, args[0])
		})
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Soft-delete a document",
	Long: `Delete marks a document inactive. Its chunks and archived versions are
retained for audit; the identity becomes free for re-ingestion.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return runDocumentsDelete(ctx, a, args[0])
		})
	},
}

func init() {
	documentsListCmd.Flags().StringVar(&documentsListFlags.author, "author", "", "filter by author")
	documentsListCmd.Flags().StringSliceVar(&documentsListFlags.tags, "tag", nil, "filter by tag (repeatable, conjunctive)")
	documentsListCmd.Flags().IntVar(&documentsListFlags.limit, "limit", 50, "maximum documents to list")
	documentsListCmd.Flags().IntVar(&documentsListFlags.offset, "offset", 0, "listing offset")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(ctx context.Context, a *app.App) error {
	docs, err := a.Documents.ListActive(ctx, document.Filter{
		Author: documentsListFlags.author,
		Tags:   documentsListFlags.tags,
		Limit:  documentsListFlags.limit,
		Offset: documentsListFlags.offset,
	})
	if err != nil {
		return err
	}

	if len(docs) == 0 {
		fmt.Println("No documents.")
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%s  v%d  %s\n", d.ID, d.VersionNumber, d.Title)
		if d.SourceURL != "" {
			fmt.Printf("  %s\n", d.SourceURL)
		}
		if len(d.Tags) > 0 {
			fmt.Printf("  tags: %s\n", strings.Join(d.Tags, ", "))
		}
	}
	return nil
}

func runDocumentsShow(ctx context.Context, a *app.App, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", rawID, err)
	}

	d, err := a.Documents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Title:    %s\n", d.Title)
	fmt.Printf("ID:       %s\n", d.ID)
	fmt.Printf("Version:  %d\n", d.VersionNumber)
	if d.SourceURL != "" {
		fmt.Printf("URL:      %s\n", d.SourceURL)
	}
	if d.Author != "" {
		fmt.Printf("Author:   %s\n", d.Author)
	}
	if len(d.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(d.Tags, ", "))
	}
	fmt.Printf("Updated:  %s\n", d.UpdatedAt.Format("2006-01-02 15:04"))
	fmt.Println()
	fmt.Println(d.Content)
	return nil
}

func runDocumentsDelete(ctx context.Context, a *app.App, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", rawID, err)
	}

	if err := a.Documents.SoftDelete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}
