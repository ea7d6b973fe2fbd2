package document

import "errors"

// Sentinel errors for document operations. Check with errors.Is.
var (
	// ErrNotFound indicates a document id that resolves to nothing or to a
	// soft-deleted row.
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates an ingestion that required the (title, source
	// URL) identity to be unused while an active document already carries it.
	ErrConflict = errors.New("active document already exists for identity")

	// ErrEmptyContent indicates blank content submitted for ingestion.
	ErrEmptyContent = errors.New("document content is empty")

	// ErrMissingTitle indicates an ingestion without a title. The title is
	// half of the document identity and cannot be defaulted.
	ErrMissingTitle = errors.New("document title is required")
)
