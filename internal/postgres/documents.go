package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
)

// Document is the documents table row shape shared by lookups and listings.
type Document struct {
	ID            uuid.UUID
	Title         string
	SourceURL     pgtype.Text
	Author        pgtype.Text
	PublishedAt   pgtype.Timestamptz
	Tags          []string
	Content       string
	VersionNumber int32
	IsActive      bool
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// DocumentVersion is an archived snapshot row from document_versions.
type DocumentVersion struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	VersionNumber int32
	Title         string
	SourceURL     pgtype.Text
	Author        pgtype.Text
	PublishedAt   pgtype.Timestamptz
	Tags          []string
	Content       string
	ArchivedAt    pgtype.Timestamptz
}

const findActiveDocumentByIdentity = `
SELECT id, title, source_url, author, published_at, tags, content,
       version_number, is_active, created_at, updated_at
FROM documents
WHERE is_active
  AND title = $1
  AND source_url IS NOT DISTINCT FROM $2
`

type FindActiveDocumentByIdentityParams struct {
	Title     string
	SourceURL pgtype.Text
}

// FindActiveDocumentByIdentity resolves the at-most-one active document for a
// (title, source_url) pair. A NULL source_url matches only title-only rows.
// Returns pgx.ErrNoRows when no active document carries the identity.
func (q *Queries) FindActiveDocumentByIdentity(ctx context.Context, arg FindActiveDocumentByIdentityParams) (Document, error) {
	row := q.db.QueryRow(ctx, findActiveDocumentByIdentity, arg.Title, arg.SourceURL)
	var d Document
	err := row.Scan(
		&d.ID, &d.Title, &d.SourceURL, &d.Author, &d.PublishedAt, &d.Tags,
		&d.Content, &d.VersionNumber, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

const getDocument = `
SELECT id, title, source_url, author, published_at, tags, content,
       version_number, is_active, created_at, updated_at
FROM documents
WHERE id = $1
`

// GetDocument fetches one document by primary key, active or not.
func (q *Queries) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	row := q.db.QueryRow(ctx, getDocument, id)
	var d Document
	err := row.Scan(
		&d.ID, &d.Title, &d.SourceURL, &d.Author, &d.PublishedAt, &d.Tags,
		&d.Content, &d.VersionNumber, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
	)
	return d, err
}

const upsertDocument = `
INSERT INTO documents (id, title, source_url, author, published_at, tags,
                       content, embedding, version_number, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
ON CONFLICT (id) DO UPDATE SET
    title = EXCLUDED.title,
    source_url = EXCLUDED.source_url,
    author = EXCLUDED.author,
    published_at = EXCLUDED.published_at,
    tags = EXCLUDED.tags,
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding,
    version_number = EXCLUDED.version_number,
    is_active = TRUE,
    updated_at = now()
`

type UpsertDocumentParams struct {
	ID            uuid.UUID
	Title         string
	SourceURL     pgtype.Text
	Author        pgtype.Text
	PublishedAt   pgtype.Timestamptz
	Tags          []string
	Content       string
	Embedding     *pgvector.Vector
	VersionNumber int32
}

// UpsertDocument inserts a new document or replaces the full state of an
// existing one by primary key.
func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	_, err := q.db.Exec(ctx, upsertDocument,
		arg.ID, arg.Title, arg.SourceURL, arg.Author, arg.PublishedAt,
		arg.Tags, arg.Content, arg.Embedding, arg.VersionNumber,
	)
	return err
}

const insertDocumentVersion = `
INSERT INTO document_versions (document_id, version_number, title, source_url,
                               author, published_at, tags, content, embedding)
SELECT id, version_number, title, source_url, author, published_at, tags,
       content, embedding
FROM documents
WHERE id = $1
`

// InsertDocumentVersion archives the current documents row as an immutable
// snapshot, copying every versioned column verbatim.
func (q *Queries) InsertDocumentVersion(ctx context.Context, documentID uuid.UUID) error {
	_, err := q.db.Exec(ctx, insertDocumentVersion, documentID)
	return err
}

const listDocumentVersions = `
SELECT id, document_id, version_number, title, source_url, author,
       published_at, tags, content, archived_at
FROM document_versions
WHERE document_id = $1
ORDER BY version_number ASC
`

// ListDocumentVersions returns all archived snapshots for a document, oldest
// version first.
func (q *Queries) ListDocumentVersions(ctx context.Context, documentID uuid.UUID) ([]DocumentVersion, error) {
	rows, err := q.db.Query(ctx, listDocumentVersions, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []DocumentVersion
	for rows.Next() {
		var v DocumentVersion
		if err := rows.Scan(
			&v.ID, &v.DocumentID, &v.VersionNumber, &v.Title, &v.SourceURL,
			&v.Author, &v.PublishedAt, &v.Tags, &v.Content, &v.ArchivedAt,
		); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

const listActiveDocuments = `
SELECT id, title, source_url, author, published_at, tags, content,
       version_number, is_active, created_at, updated_at
FROM documents
WHERE is_active
  AND ($1::text IS NULL OR author = $1)
  AND ($2::text[] IS NULL OR cardinality($2) = 0 OR tags @> $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListActiveDocumentsParams struct {
	Author pgtype.Text
	Tags   []string
	Limit  int32
	Offset int32
}

// ListActiveDocuments lists active documents, newest first. Author and tags
// filters are no-ops when NULL/empty.
func (q *Queries) ListActiveDocuments(ctx context.Context, arg ListActiveDocumentsParams) ([]Document, error) {
	rows, err := q.db.Query(ctx, listActiveDocuments, arg.Author, arg.Tags, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(
			&d.ID, &d.Title, &d.SourceURL, &d.Author, &d.PublishedAt, &d.Tags,
			&d.Content, &d.VersionNumber, &d.IsActive, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

const softDeleteDocument = `
UPDATE documents
SET is_active = FALSE, updated_at = now()
WHERE id = $1 AND is_active
`

// SoftDeleteDocument marks a document inactive, keeping chunks and versions
// for audit. Returns the number of rows updated (0 means not found or
// already inactive).
func (q *Queries) SoftDeleteDocument(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, softDeleteDocument, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
