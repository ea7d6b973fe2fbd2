package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

const deleteDocumentChunks = `
DELETE FROM document_chunks
WHERE document_id = $1
`

// DeleteDocumentChunks removes every chunk of a document. Chunks are always
// regenerated wholesale, never patched.
func (q *Queries) DeleteDocumentChunks(ctx context.Context, documentID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteDocumentChunks, documentID)
	return err
}

const insertDocumentChunk = `
INSERT INTO document_chunks (document_id, chunk_index, chunk_text, embedding, token_count)
VALUES ($1, $2, $3, $4, $5)
`

type InsertDocumentChunkParams struct {
	DocumentID uuid.UUID
	ChunkIndex int32
	ChunkText  string
	Embedding  *pgvector.Vector
	TokenCount int32
}

// InsertDocumentChunk inserts one chunk row. Callers insert in chunk_index
// order so insertion order matches document position.
func (q *Queries) InsertDocumentChunk(ctx context.Context, arg InsertDocumentChunkParams) error {
	_, err := q.db.Exec(ctx, insertDocumentChunk,
		arg.DocumentID, arg.ChunkIndex, arg.ChunkText, arg.Embedding, arg.TokenCount,
	)
	return err
}

const countDocumentChunks = `
SELECT count(*) FROM document_chunks WHERE document_id = $1
`

// CountDocumentChunks returns the number of stored chunks for a document.
func (q *Queries) CountDocumentChunks(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countDocumentChunks, documentID).Scan(&count)
	return count, err
}
