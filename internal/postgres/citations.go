package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getActiveDocumentIDs = `
SELECT id FROM documents
WHERE is_active AND id = ANY($1)
`

// GetActiveDocumentIDs filters ids down to those naming an active document.
// The result order is unspecified.
func (q *Queries) GetActiveDocumentIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, getActiveDocumentIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var active []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		active = append(active, id)
	}
	return active, rows.Err()
}

const insertCitation = `
INSERT INTO citations (brief_id, content_id, document_id, chunk_id,
                       citation_index, snippet, relevance_score)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type InsertCitationParams struct {
	BriefID        pgtype.UUID
	ContentID      pgtype.UUID
	DocumentID     uuid.UUID
	ChunkID        pgtype.UUID
	CitationIndex  int32
	Snippet        pgtype.Text
	RelevanceScore pgtype.Float8
}

// InsertCitation records one citation. The table enforces that exactly one
// of brief_id/content_id is set.
func (q *Queries) InsertCitation(ctx context.Context, arg InsertCitationParams) error {
	_, err := q.db.Exec(ctx, insertCitation,
		arg.BriefID, arg.ContentID, arg.DocumentID, arg.ChunkID,
		arg.CitationIndex, arg.Snippet, arg.RelevanceScore,
	)
	return err
}
