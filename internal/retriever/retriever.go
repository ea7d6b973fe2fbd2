// Package retriever executes semantic and hybrid search over the knowledge
// base and renders numbered citation context blocks for prompting.
package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/draftwise/draftwise/internal/postgres"
)

// Default search parameters, overridable per call and at construction.
const (
	DefaultCount          = 5
	DefaultThreshold      = 0.35
	DefaultFullTextWeight = 0.3
	DefaultSemanticWeight = 0.7
)

// Querier defines the search statements Retriever depends on.
type Querier interface {
	SearchDocumentsSemantic(ctx context.Context, arg postgres.SearchDocumentsSemanticParams) ([]postgres.SearchDocumentsSemanticRow, error)
	SearchChunksSemantic(ctx context.Context, arg postgres.SearchChunksSemanticParams) ([]postgres.SearchChunksSemanticRow, error)
	SearchChunksHybrid(ctx context.Context, arg postgres.SearchChunksHybridParams) ([]postgres.SearchChunksHybridRow, error)
}

// Embedder produces the query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchOptions narrows and sizes a search. Zero-value fields fall back to
// the retriever defaults; Author and Tags are conjunctive filters and no-ops
// when empty.
type SearchOptions struct {
	Author    string
	Tags      []string
	Threshold float64
	Count     int
}

// HybridOptions adds the lexical/semantic blend weights. Zero weights fall
// back to the configured defaults.
type HybridOptions struct {
	SearchOptions
	FullTextWeight float64
	SemanticWeight float64
}

// Result is one ranked hit. ChunkID is uuid.Nil for whole-document results.
// Score equals Similarity except for hybrid search, where it is the blended
// lexical+semantic value the ranking used.
type Result struct {
	DocID      uuid.UUID
	ChunkID    uuid.UUID
	ChunkIndex int
	Title      string
	SourceURL  string
	Text       string
	Similarity float64
	Score      float64
}

// Source is one numbered entry of a context block. Index is the citation
// number downstream generation must use.
type Source struct {
	Index      int
	DocID      uuid.UUID
	ChunkID    uuid.UUID
	Title      string
	Snippet    string
	URL        string
	Similarity float64
}

// Context is a rendered prompt context: the numbered text block plus the
// source list in the same order.
type Context struct {
	Text    string
	Sources []Source
}

// Defaults carries the construction-time search defaults, usually from
// configuration.
type Defaults struct {
	Count          int
	Threshold      float64
	FullTextWeight float64
	SemanticWeight float64
}

// Retriever ranks stored documents and chunks against query text.
//
// Retriever is safe for concurrent use by multiple goroutines.
type Retriever struct {
	queries  Querier
	embedder Embedder
	defaults Defaults
	logger   *slog.Logger
}

// New creates a Retriever. Zero-value defaults fields fall back to the
// package constants; logger nil means slog.Default().
func New(querier Querier, embedder Embedder, defaults Defaults, logger *slog.Logger) *Retriever {
	if defaults.Count <= 0 {
		defaults.Count = DefaultCount
	}
	if defaults.Threshold <= 0 {
		defaults.Threshold = DefaultThreshold
	}
	if defaults.FullTextWeight <= 0 {
		defaults.FullTextWeight = DefaultFullTextWeight
	}
	if defaults.SemanticWeight <= 0 {
		defaults.SemanticWeight = DefaultSemanticWeight
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		queries:  querier,
		embedder: embedder,
		defaults: defaults,
		logger:   logger,
	}
}

// SearchDocuments ranks whole documents by full-text embedding similarity.
func (r *Retriever) SearchDocuments(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := r.queries.SearchDocumentsSemantic(ctx, postgres.SearchDocumentsSemanticParams{
		QueryEmbedding: vec,
		Author:         textOrNull(opts.Author),
		Tags:           opts.Tags,
		Threshold:      r.threshold(opts),
		ResultLimit:    r.count(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{
			DocID:      row.ID,
			Title:      row.Title,
			SourceURL:  row.SourceURL.String,
			Text:       row.Content,
			Similarity: row.Similarity,
			Score:      row.Similarity,
		})
	}
	return results, nil
}

// SearchChunks ranks chunks by embedding similarity. This is the default
// grounding mode: chunks are finer-grained than whole documents.
func (r *Retriever) SearchChunks(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := r.queries.SearchChunksSemantic(ctx, postgres.SearchChunksSemanticParams{
		QueryEmbedding: vec,
		Author:         textOrNull(opts.Author),
		Tags:           opts.Tags,
		Threshold:      r.threshold(opts),
		ResultLimit:    r.count(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{
			DocID:      row.DocumentID,
			ChunkID:    row.ID,
			ChunkIndex: int(row.ChunkIndex),
			Title:      row.Title,
			SourceURL:  row.SourceURL.String,
			Text:       row.ChunkText,
			Similarity: row.Similarity,
			Score:      row.Similarity,
		})
	}
	return results, nil
}

// HybridSearch blends lexical rank and semantic similarity over chunks:
// score = fullTextWeight*lexical + semanticWeight*(1 - cosineDistance). A
// chunk qualifies by matching the lexical query or clearing the similarity
// threshold, not necessarily both.
func (r *Retriever) HybridSearch(ctx context.Context, query string, opts HybridOptions) ([]Result, error) {
	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	fullText := opts.FullTextWeight
	if fullText <= 0 {
		fullText = r.defaults.FullTextWeight
	}
	semantic := opts.SemanticWeight
	if semantic <= 0 {
		semantic = r.defaults.SemanticWeight
	}

	rows, err := r.queries.SearchChunksHybrid(ctx, postgres.SearchChunksHybridParams{
		QueryEmbedding: vec,
		QueryText:      query,
		Author:         textOrNull(opts.Author),
		Tags:           opts.Tags,
		FullTextWeight: fullText,
		SemanticWeight: semantic,
		Threshold:      r.threshold(opts.SearchOptions),
		ResultLimit:    r.count(opts.SearchOptions),
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{
			DocID:      row.DocumentID,
			ChunkID:    row.ID,
			ChunkIndex: int(row.ChunkIndex),
			Title:      row.Title,
			SourceURL:  row.SourceURL.String,
			Text:       row.ChunkText,
			Similarity: row.Similarity,
			Score:      row.Score,
		})
	}
	return results, nil
}

// BuildContext runs a chunk search and renders the results as a numbered
// context block. The numbering is the citation vocabulary downstream
// generation must use; Sources carries the same ordering for later citation
// extraction.
func (r *Retriever) BuildContext(ctx context.Context, query string, opts SearchOptions) (Context, error) {
	results, err := r.SearchChunks(ctx, query, opts)
	if err != nil {
		return Context{}, err
	}

	var b strings.Builder
	sources := make([]Source, 0, len(results))
	for i, res := range results {
		n := i + 1
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", n, res.Title, res.Text)
		if res.SourceURL != "" {
			fmt.Fprintf(&b, "\nSource: %s", res.SourceURL)
		}

		sources = append(sources, Source{
			Index:      n,
			DocID:      res.DocID,
			ChunkID:    res.ChunkID,
			Title:      res.Title,
			Snippet:    Snippet(res.Text, SnippetMaxLen),
			URL:        res.SourceURL,
			Similarity: res.Similarity,
		})
	}

	r.logger.Debug("built retrieval context", "query_length", len(query), "sources", len(sources))
	return Context{Text: b.String(), Sources: sources}, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) (*pgvector.Vector, error) {
	raw, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vec := pgvector.NewVector(raw)
	return &vec, nil
}

func (r *Retriever) threshold(opts SearchOptions) float64 {
	if opts.Threshold > 0 {
		return opts.Threshold
	}
	return r.defaults.Threshold
}

func (r *Retriever) count(opts SearchOptions) int32 {
	if opts.Count > 0 {
		return int32(opts.Count)
	}
	return int32(r.defaults.Count)
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
