package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draftwise/draftwise/internal/app"
	"github.com/draftwise/draftwise/internal/retriever"
)

var contextFlags struct {
	author    string
	tags      []string
	threshold float64
	count     int
}

var contextCmd = &cobra.Command{
	Use:   "context <query>",
	Short: "Build a numbered citation context for a query",
	Long: `Context searches chunks and prints the numbered source block that a
generation prompt would receive. The bracketed numbers are the citation
vocabulary generated text must use.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return runContext(ctx, a, args[0])
		})
	},
}

func init() {
	contextCmd.Flags().StringVar(&contextFlags.author, "author", "", "filter by author")
	contextCmd.Flags().StringSliceVar(&contextFlags.tags, "tag", nil, "filter by tag (repeatable, conjunctive)")
	contextCmd.Flags().Float64Var(&contextFlags.threshold, "threshold", 0, "minimum similarity (default from config)")
	contextCmd.Flags().IntVar(&contextFlags.count, "count", 0, "maximum sources (default from config)")
	rootCmd.AddCommand(contextCmd)
}

func runContext(ctx context.Context, a *app.App, query string) error {
	rc, err := a.Retriever.BuildContext(ctx, query, retriever.SearchOptions{
		Author:    contextFlags.author,
		Tags:      contextFlags.tags,
		Threshold: contextFlags.threshold,
		Count:     contextFlags.count,
	})
	if err != nil {
		return err
	}

	if len(rc.Sources) == 0 {
		fmt.Println("No sources found.")
		return nil
	}

	fmt.Println(rc.Text)
	fmt.Println()
	fmt.Println("Sources:")
	for _, s := range rc.Sources {
		fmt.Printf("  [%d] %s (doc %s, similarity %.3f)\n", s.Index, s.Title, s.DocID, s.Similarity)
	}
	return nil
}
