package document

import (
	"time"

	"github.com/google/uuid"
)

// Document is a top-level knowledge unit. At most one active document exists
// per (Title, SourceURL) pair; an empty SourceURL is its own key space and
// matches only other URL-less documents.
type Document struct {
	ID            uuid.UUID
	Title         string
	SourceURL     string
	Author        string
	PublishedAt   time.Time
	Tags          []string
	Content       string
	VersionNumber int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Version is an immutable snapshot of a document state at the moment it was
// superseded by a re-ingestion.
type Version struct {
	DocumentID    uuid.UUID
	VersionNumber int
	Title         string
	SourceURL     string
	Author        string
	PublishedAt   time.Time
	Tags          []string
	Content       string
	ArchivedAt    time.Time
}

// Input carries the content and metadata of one ingestion.
type Input struct {
	Title       string
	SourceURL   string
	Author      string
	PublishedAt time.Time
	Tags        []string
	Content     string
}

// Options controls chunking and identity handling for one ingestion.
type Options struct {
	// ChunkTokens and OverlapTokens size the chunker; non-positive values
	// fall back to the chunker defaults.
	ChunkTokens   int
	OverlapTokens int

	// CreateVersion archives the prior state as a Version when re-ingesting
	// an existing identity. When false the document is overwritten in place
	// and no snapshot is kept.
	CreateVersion bool

	// FailIfExists rejects the ingestion with ErrConflict when an active
	// document already carries the identity, instead of versioning or
	// overwriting it.
	FailIfExists bool
}

// DefaultOptions returns the standard ingestion behavior: versioning on,
// chunker defaults, duplicates versioned rather than rejected.
func DefaultOptions() Options {
	return Options{CreateVersion: true}
}

// Receipt reports what one ingestion produced.
type Receipt struct {
	DocID         uuid.UUID
	ChunksCreated int
	VersionNumber int
}

// Filter narrows ListActive. Zero-value fields are no-ops.
type Filter struct {
	Author string
	Tags   []string
	Limit  int
	Offset int
}
