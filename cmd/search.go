package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/app"
	"github.com/draftwise/draftwise/internal/retriever"
)

var searchFlags struct {
	mode      string
	author    string
	tags      []string
	threshold float64
	count     int
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long: `Search ranks stored content against the query.

Modes:
  chunks     semantic search over chunks (default)
  documents  semantic search over whole documents
  hybrid     blended lexical + semantic ranking over chunks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return runSearch(ctx, a, args[0])
		})
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchFlags.mode, "mode", "chunks", "search mode: chunks, documents, or hybrid")
	searchCmd.Flags().StringVar(&searchFlags.author, "author", "", "filter by author")
	searchCmd.Flags().StringSliceVar(&searchFlags.tags, "tag", nil, "filter by tag (repeatable, conjunctive)")
	searchCmd.Flags().Float64Var(&searchFlags.threshold, "threshold", 0, "minimum similarity (default from config)")
	searchCmd.Flags().IntVar(&searchFlags.count, "count", 0, "maximum results (default from config)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context, a *app.App, query string) error {
	opts := retriever.SearchOptions{
		Author:    searchFlags.author,
		Tags:      searchFlags.tags,
		Threshold: searchFlags.threshold,
		Count:     searchFlags.count,
	}

	var (
		results []retriever.Result
		err     error
	)
	switch searchFlags.mode {
	case "chunks":
		results, err = a.Retriever.SearchChunks(ctx, query, opts)
	case "documents":
		results, err = a.Retriever.SearchDocuments(ctx, query, opts)
	case "hybrid":
		results, err = a.Retriever.HybridSearch(ctx, query, retriever.HybridOptions{SearchOptions: opts})
	default:
		return fmt.Errorf("unknown search mode %q", searchFlags.mode)
	}
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. %s (score %.3f", i+1, r.Title, r.Score)
		if r.Score != r.Similarity {
			fmt.Printf(", similarity %.3f", r.Similarity)
		}
		fmt.Println(")")
		fmt.Printf("   %s\n", retriever.Snippet(r.Text, retriever.SnippetMaxLen))
		if r.SourceURL != "" {
			fmt.Printf("   %s\n", r.SourceURL)
		}
	}
	return nil
}
