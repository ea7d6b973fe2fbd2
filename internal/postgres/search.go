package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

const searchDocumentsSemantic = `
SELECT id, title, source_url, author, tags, content, created_at,
       1 - (embedding <=> $1) AS similarity
FROM documents
WHERE is_active
  AND embedding IS NOT NULL
  AND ($2::text IS NULL OR author = $2)
  AND ($3::text[] IS NULL OR cardinality($3) = 0 OR tags @> $3)
  AND 1 - (embedding <=> $1) >= $4
ORDER BY similarity DESC, created_at ASC
LIMIT $5
`

type SearchDocumentsSemanticParams struct {
	QueryEmbedding *pgvector.Vector
	Author         pgtype.Text
	Tags           []string
	Threshold      float64
	ResultLimit    int32
}

type SearchDocumentsSemanticRow struct {
	ID         uuid.UUID
	Title      string
	SourceURL  pgtype.Text
	Author     pgtype.Text
	Tags       []string
	Content    string
	CreatedAt  pgtype.Timestamptz
	Similarity float64
}

// SearchDocumentsSemantic ranks active documents by cosine similarity of
// their full-text embedding against the query embedding. Ties break on
// creation order so identical queries return identical orderings.
func (q *Queries) SearchDocumentsSemantic(ctx context.Context, arg SearchDocumentsSemanticParams) ([]SearchDocumentsSemanticRow, error) {
	rows, err := q.db.Query(ctx, searchDocumentsSemantic,
		arg.QueryEmbedding, arg.Author, arg.Tags, arg.Threshold, arg.ResultLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchDocumentsSemanticRow
	for rows.Next() {
		var r SearchDocumentsSemanticRow
		if err := rows.Scan(
			&r.ID, &r.Title, &r.SourceURL, &r.Author, &r.Tags, &r.Content,
			&r.CreatedAt, &r.Similarity,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

const searchChunksSemantic = `
SELECT c.id, c.document_id, c.chunk_index, c.chunk_text, c.token_count,
       d.title, d.source_url, c.created_at,
       1 - (c.embedding <=> $1) AS similarity
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.is_active
  AND c.embedding IS NOT NULL
  AND ($2::text IS NULL OR d.author = $2)
  AND ($3::text[] IS NULL OR cardinality($3) = 0 OR d.tags @> $3)
  AND 1 - (c.embedding <=> $1) >= $4
ORDER BY similarity DESC, c.created_at ASC, c.chunk_index ASC
LIMIT $5
`

type SearchChunksSemanticParams struct {
	QueryEmbedding *pgvector.Vector
	Author         pgtype.Text
	Tags           []string
	Threshold      float64
	ResultLimit    int32
}

type SearchChunksSemanticRow struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	ChunkIndex int32
	ChunkText  string
	TokenCount int32
	Title      string
	SourceURL  pgtype.Text
	CreatedAt  pgtype.Timestamptz
	Similarity float64
}

// SearchChunksSemantic ranks chunks of active documents by cosine similarity
// against the query embedding.
func (q *Queries) SearchChunksSemantic(ctx context.Context, arg SearchChunksSemanticParams) ([]SearchChunksSemanticRow, error) {
	rows, err := q.db.Query(ctx, searchChunksSemantic,
		arg.QueryEmbedding, arg.Author, arg.Tags, arg.Threshold, arg.ResultLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchChunksSemanticRow
	for rows.Next() {
		var r SearchChunksSemanticRow
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.ChunkIndex, &r.ChunkText, &r.TokenCount,
			&r.Title, &r.SourceURL, &r.CreatedAt, &r.Similarity,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

const searchChunksHybrid = `
SELECT c.id, c.document_id, c.chunk_index, c.chunk_text, c.token_count,
       d.title, d.source_url, c.created_at,
       1 - (c.embedding <=> $1) AS similarity,
       $5 * ts_rank_cd(to_tsvector('english', c.chunk_text),
                       plainto_tsquery('english', $2)) +
       $6 * (1 - (c.embedding <=> $1)) AS score
FROM document_chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.is_active
  AND c.embedding IS NOT NULL
  AND ($3::text IS NULL OR d.author = $3)
  AND ($4::text[] IS NULL OR cardinality($4) = 0 OR d.tags @> $4)
  AND (
      to_tsvector('english', c.chunk_text) @@ plainto_tsquery('english', $2)
      OR 1 - (c.embedding <=> $1) >= $7
  )
ORDER BY score DESC, c.created_at ASC, c.chunk_index ASC
LIMIT $8
`

type SearchChunksHybridParams struct {
	QueryEmbedding *pgvector.Vector
	QueryText      string
	Author         pgtype.Text
	Tags           []string
	FullTextWeight float64
	SemanticWeight float64
	Threshold      float64
	ResultLimit    int32
}

type SearchChunksHybridRow struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	ChunkIndex int32
	ChunkText  string
	TokenCount int32
	Title      string
	SourceURL  pgtype.Text
	CreatedAt  pgtype.Timestamptz
	Similarity float64
	Score      float64
}

// SearchChunksHybrid blends lexical rank and semantic similarity into one
// score. A chunk qualifies if it matches the lexical query or its similarity
// clears the threshold (inclusive or).
func (q *Queries) SearchChunksHybrid(ctx context.Context, arg SearchChunksHybridParams) ([]SearchChunksHybridRow, error) {
	rows, err := q.db.Query(ctx, searchChunksHybrid,
		arg.QueryEmbedding, arg.QueryText, arg.Author, arg.Tags,
		arg.FullTextWeight, arg.SemanticWeight, arg.Threshold, arg.ResultLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchChunksHybridRow
	for rows.Next() {
		var r SearchChunksHybridRow
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.ChunkIndex, &r.ChunkText, &r.TokenCount,
			&r.Title, &r.SourceURL, &r.CreatedAt, &r.Similarity, &r.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
