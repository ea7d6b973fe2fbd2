package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/app"
	"github.com/draftwise/draftwise/internal/document"
)

var ingestFlags struct {
	title     string
	sourceURL string
	author    string
	published string
	tags      []string
	chunkSize int
	overlap   int
	noVersion bool
	mustBeNew bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Ingest a document into the knowledge base",
	Long: `Ingest reads a file, chunks and embeds its content, and stores it.
Re-ingesting a document with the same title and source URL archives the
prior state as a version unless --no-version is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return runIngest(ctx, a, args[0])
		})
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.title, "title", "", "document title (default: file name)")
	ingestCmd.Flags().StringVar(&ingestFlags.sourceURL, "url", "", "source URL")
	ingestCmd.Flags().StringVar(&ingestFlags.author, "author", "", "author")
	ingestCmd.Flags().StringVar(&ingestFlags.published, "published", "", "publication date (YYYY-MM-DD)")
	ingestCmd.Flags().StringSliceVar(&ingestFlags.tags, "tag", nil, "tag (repeatable)")
	ingestCmd.Flags().IntVar(&ingestFlags.chunkSize, "chunk-size", 0, "chunk size in tokens (default from config)")
	ingestCmd.Flags().IntVar(&ingestFlags.overlap, "overlap", -1, "chunk overlap in tokens (default from config)")
	ingestCmd.Flags().BoolVar(&ingestFlags.noVersion, "no-version", false, "overwrite in place without archiving a version")
	ingestCmd.Flags().BoolVar(&ingestFlags.mustBeNew, "must-be-new", false, "fail if the document identity already exists")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(ctx context.Context, a *app.App, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	content, err := a.Extractor.ExtractPlainText(data, mimeType)
	if err != nil {
		return fmt.Errorf("extracting text from %s: %w", path, err)
	}

	title := ingestFlags.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var published time.Time
	if ingestFlags.published != "" {
		published, err = time.Parse("2006-01-02", ingestFlags.published)
		if err != nil {
			return fmt.Errorf("invalid --published date %q: %w", ingestFlags.published, err)
		}
	}

	chunkTokens := ingestFlags.chunkSize
	if chunkTokens <= 0 {
		chunkTokens = a.Config.ChunkTokens
	}
	overlapTokens := ingestFlags.overlap
	if overlapTokens < 0 {
		overlapTokens = a.Config.ChunkOverlapTokens
	}

	receipt, err := a.Documents.Ingest(ctx, document.Input{
		Title:       title,
		SourceURL:   ingestFlags.sourceURL,
		Author:      ingestFlags.author,
		PublishedAt: published,
		Tags:        ingestFlags.tags,
		Content:     content,
	}, document.Options{
		ChunkTokens:   chunkTokens,
		OverlapTokens: overlapTokens,
		CreateVersion: !ingestFlags.noVersion,
		FailIfExists:  ingestFlags.mustBeNew,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %q\n", title)
	fmt.Printf("  Document: %s\n", receipt.DocID)
	fmt.Printf("  Version:  %d\n", receipt.VersionNumber)
	fmt.Printf("  Chunks:   %d\n", receipt.ChunksCreated)
	return nil
}
