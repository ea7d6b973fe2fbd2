// Package document persists knowledge documents, their chunk sets, and their
// version lineage. Identity is the (title, source URL) pair: re-ingesting an
// existing identity either archives the prior state as a version or
// overwrites it in place, controlled per call.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/draftwise/draftwise/internal/chunker"
	"github.com/draftwise/draftwise/internal/postgres"
)

// Querier defines the database operations Store depends on. Interfaces are
// defined by the consumer so Store can be unit-tested against a mock.
type Querier interface {
	FindActiveDocumentByIdentity(ctx context.Context, arg postgres.FindActiveDocumentByIdentityParams) (postgres.Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (postgres.Document, error)
	UpsertDocument(ctx context.Context, arg postgres.UpsertDocumentParams) error
	InsertDocumentVersion(ctx context.Context, documentID uuid.UUID) error
	ListDocumentVersions(ctx context.Context, documentID uuid.UUID) ([]postgres.DocumentVersion, error)
	ListActiveDocuments(ctx context.Context, arg postgres.ListActiveDocumentsParams) ([]postgres.Document, error)
	SoftDeleteDocument(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteDocumentChunks(ctx context.Context, documentID uuid.UUID) error
	InsertDocumentChunk(ctx context.Context, arg postgres.InsertDocumentChunkParams) error
}

// Embedder produces fixed-dimension vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store manages documents, versions, and chunks.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	pool     *pgxpool.Pool
	embedder Embedder
	logger   *slog.Logger
}

// New creates a Store. pool may be nil, in which case writes run without a
// transaction (unit tests); in production pass the pool so document and
// chunk writes of one ingestion commit atomically. logger nil means
// slog.Default().
func New(querier Querier, pool *pgxpool.Pool, embedder Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		pool:     pool,
		embedder: embedder,
		logger:   logger,
	}
}

// Ingest chunks, embeds, and persists one document.
//
// The identity decision is a table on (active document exists, options):
//
//	absent                    -> new document, version 1
//	exists, FailIfExists      -> ErrConflict
//	exists, CreateVersion     -> archive prior state, same id, version+1
//	exists, overwrite         -> same id and version, prior chunks dropped
//
// Embedding happens before the storage transaction opens; a provider failure
// leaves the store untouched. Within the transaction the prior state is
// archived (if versioning), the document row is upserted, and the chunk set
// is deleted and fully regenerated.
func (s *Store) Ingest(ctx context.Context, input Input, opts Options) (Receipt, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return Receipt{}, ErrMissingTitle
	}
	if strings.TrimSpace(input.Content) == "" {
		return Receipt{}, ErrEmptyContent
	}

	existing, err := s.queries.FindActiveDocumentByIdentity(ctx, postgres.FindActiveDocumentByIdentityParams{
		Title:     input.Title,
		SourceURL: textOrNull(input.SourceURL),
	})
	exists := true
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, fmt.Errorf("lookup document identity: %w", err)
		}
		exists = false
	}

	var (
		docID   uuid.UUID
		version int
		archive bool
	)
	switch {
	case !exists:
		docID = uuid.New()
		version = 1
	case opts.FailIfExists:
		return Receipt{}, fmt.Errorf("%w: %q", ErrConflict, input.Title)
	case opts.CreateVersion:
		docID = existing.ID
		version = int(existing.VersionNumber) + 1
		archive = true
	default:
		docID = existing.ID
		version = int(existing.VersionNumber)
	}

	chunks := chunker.Split(input.Content, opts.ChunkTokens, opts.OverlapTokens)

	docVec, err := s.embedder.Embed(ctx, input.Content)
	if err != nil {
		return Receipt{}, fmt.Errorf("embed document: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	chunkVecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return Receipt{}, fmt.Errorf("embed chunks: %w", err)
	}

	err = s.inTx(ctx, func(q Querier) error {
		if archive {
			if err := q.InsertDocumentVersion(ctx, docID); err != nil {
				return fmt.Errorf("archive version %d: %w", existing.VersionNumber, err)
			}
		}

		docEmbedding := pgvector.NewVector(docVec)
		if err := q.UpsertDocument(ctx, postgres.UpsertDocumentParams{
			ID:            docID,
			Title:         input.Title,
			SourceURL:     textOrNull(input.SourceURL),
			Author:        textOrNull(input.Author),
			PublishedAt:   timestampOrNull(input.PublishedAt),
			Tags:          tagsOrEmpty(input.Tags),
			Content:       input.Content,
			Embedding:     &docEmbedding,
			VersionNumber: int32(version),
		}); err != nil {
			return fmt.Errorf("upsert document %s: %w", docID, err)
		}

		if exists {
			if err := q.DeleteDocumentChunks(ctx, docID); err != nil {
				return fmt.Errorf("delete prior chunks: %w", err)
			}
		}
		for i, c := range chunks {
			embedding := pgvector.NewVector(chunkVecs[i])
			if err := q.InsertDocumentChunk(ctx, postgres.InsertDocumentChunkParams{
				DocumentID: docID,
				ChunkIndex: int32(c.Index),
				ChunkText:  c.Text,
				Embedding:  &embedding,
				TokenCount: int32(c.TokenCount),
			}); err != nil {
				return fmt.Errorf("insert chunk %d: %w", c.Index, err)
			}
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	s.logger.Debug("ingested document",
		"id", docID, "version", version, "chunks", len(chunks), "archived", archive)

	return Receipt{
		DocID:         docID,
		ChunksCreated: len(chunks),
		VersionNumber: version,
	}, nil
}

// GetByID fetches one document. Soft-deleted documents report ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Document, error) {
	row, err := s.queries.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	if !row.IsActive {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return toDocument(row), nil
}

// ListActive lists active documents, newest first. Author and tags filters
// are conjunctive and no-ops when empty.
func (s *Store) ListActive(ctx context.Context, filter Filter) ([]Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.queries.ListActiveDocuments(ctx, postgres.ListActiveDocumentsParams{
		Author: textOrNull(filter.Author),
		Tags:   filter.Tags,
		Limit:  int32(limit),
		Offset: int32(filter.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, toDocument(row))
	}
	return docs, nil
}

// SoftDelete marks a document inactive. Chunks and versions are retained for
// audit; ErrNotFound when the id resolves to nothing or an inactive row.
func (s *Store) SoftDelete(ctx context.Context, id uuid.UUID) error {
	affected, err := s.queries.SoftDeleteDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("soft delete document %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.logger.Debug("soft deleted document", "id", id)
	return nil
}

// ListVersions returns the archived snapshots of a document, oldest first.
// A document that was never re-ingested has none.
func (s *Store) ListVersions(ctx context.Context, id uuid.UUID) ([]Version, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.queries.ListDocumentVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", id, err)
	}

	versions := make([]Version, 0, len(rows))
	for _, row := range rows {
		versions = append(versions, Version{
			DocumentID:    row.DocumentID,
			VersionNumber: int(row.VersionNumber),
			Title:         row.Title,
			SourceURL:     row.SourceURL.String,
			Author:        row.Author.String,
			PublishedAt:   row.PublishedAt.Time,
			Tags:          row.Tags,
			Content:       row.Content,
			ArchivedAt:    row.ArchivedAt.Time,
		})
	}
	return versions, nil
}

// inTx runs fn inside a pool transaction, or directly against the configured
// querier when no pool is present.
func (s *Store) inTx(ctx context.Context, fn func(q Querier) error) error {
	if s.pool == nil {
		return fn(s.queries)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(postgres.New(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func toDocument(row postgres.Document) Document {
	return Document{
		ID:            row.ID,
		Title:         row.Title,
		SourceURL:     row.SourceURL.String,
		Author:        row.Author.String,
		PublishedAt:   row.PublishedAt.Time,
		Tags:          row.Tags,
		Content:       row.Content,
		VersionNumber: int(row.VersionNumber),
		IsActive:      row.IsActive,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}

// textOrNull maps an empty string to SQL NULL. An absent source URL must be
// stored as NULL so the identity index treats it as its own key space.
func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func timestampOrNull(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
