// Package extract is the text-extraction boundary: it turns raw file bytes
// into UTF-8 plain text for ingestion. Rich formats (PDF, DOCX, HTML) are
// external collaborators behind the Extractor interface; this package ships
// the plain-text implementation.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for extraction. Check with errors.Is.
var (
	// ErrEmptyDocument indicates extraction produced no text. An empty
	// result is treated as a corrupt or unsupported file, never as a valid
	// empty document.
	ErrEmptyDocument = errors.New("no text extracted from document")

	// ErrUnsupportedType indicates a MIME type this extractor cannot handle.
	ErrUnsupportedType = errors.New("unsupported document type")
)

// Extractor converts raw document bytes into plain UTF-8 text.
type Extractor interface {
	ExtractPlainText(data []byte, mimeType string) (string, error)
}

// textMIMETypes are the types Plaintext accepts. Parameters like
// "; charset=utf-8" are stripped before matching.
var textMIMETypes = map[string]struct{}{
	"text/plain":       {},
	"text/markdown":    {},
	"text/csv":         {},
	"application/json": {},
	"":                 {}, // undeclared: accept if the bytes are valid UTF-8 text
}

// Plaintext extracts text-like MIME types verbatim. It rejects anything it
// would have to parse.
type Plaintext struct{}

// ExtractPlainText validates and returns the bytes as UTF-8 text.
func (Plaintext) ExtractPlainText(data []byte, mimeType string) (string, error) {
	base := mimeType
	if idx := strings.IndexByte(base, ';'); idx >= 0 {
		base = base[:idx]
	}
	base = strings.ToLower(strings.TrimSpace(base))

	if _, ok := textMIMETypes[base]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
