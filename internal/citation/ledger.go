// Package citation validates, extracts, and records the links from generated
// text back to the knowledge base entries that grounded it.
//
// Generated text cites sources with bracketed numbers matching the numbered
// context block it was prompted with. The ledger is stateless per call; all
// state lives in the citations table.
package citation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/draftwise/draftwise/internal/postgres"
	"github.com/draftwise/draftwise/internal/retriever"
)

// ErrMalformedID indicates an id that is not a well-formed UUID. Format is
// checked for the whole list before any existence lookup.
var ErrMalformedID = errors.New("malformed document id")

// markerPattern matches bracketed citation numbers like [1] or [12].
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Querier defines the database operations Ledger depends on.
type Querier interface {
	GetActiveDocumentIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	InsertCitation(ctx context.Context, arg postgres.InsertCitationParams) error
}

// ValidationResult reports which cited ids resolve to active documents.
// Missing and Existing partition the input so callers can report exactly
// which references are bad.
type ValidationResult struct {
	Valid    bool
	Missing  []uuid.UUID
	Existing []uuid.UUID
}

// Citation is one recorded grounding link. Exactly one of BriefID/ContentID
// must be set before Persist; uuid.Nil means unset.
type Citation struct {
	BriefID        uuid.UUID
	ContentID      uuid.UUID
	DocID          uuid.UUID
	ChunkID        uuid.UUID
	Index          int
	Snippet        string
	RelevanceScore float64
}

// Ledger validates and records citations.
//
// Ledger is safe for concurrent use by multiple goroutines.
type Ledger struct {
	queries Querier
	logger  *slog.Logger
}

// New creates a Ledger. logger nil means slog.Default().
func New(querier Querier, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{queries: querier, logger: logger}
}

// ValidateCitedIDs checks that every id resolves to an active document. Any
// malformed id fails the whole call with ErrMalformedID before existence is
// checked. Duplicate ids are validated once and reported once.
func (l *Ledger) ValidateCitedIDs(ctx context.Context, ids []string) (ValidationResult, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return ValidationResult{}, fmt.Errorf("%w: %q", ErrMalformedID, raw)
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		parsed = append(parsed, id)
	}
	if len(parsed) == 0 {
		return ValidationResult{Valid: true}, nil
	}

	activeIDs, err := l.queries.GetActiveDocumentIDs(ctx, parsed)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("look up cited documents: %w", err)
	}
	active := make(map[uuid.UUID]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	result := ValidationResult{Valid: true}
	for _, id := range parsed {
		if _, ok := active[id]; ok {
			result.Existing = append(result.Existing, id)
		} else {
			result.Valid = false
			result.Missing = append(result.Missing, id)
		}
	}
	return result, nil
}

// ExtractCitations scans generated text for bracketed citation markers and
// resolves each against the numbered sources the generation was prompted
// with. The first occurrence of each number wins; repeats are ignored.
// Markers naming no source are dropped with a debug log, never an error,
// because generation may cite numbers it was never given.
func (l *Ledger) ExtractCitations(generatedText string, sources []retriever.Source) []Citation {
	byIndex := make(map[int]retriever.Source, len(sources))
	for _, s := range sources {
		byIndex[s.Index] = s
	}

	var citations []Citation
	seen := make(map[int]struct{})
	for _, match := range markerPattern.FindAllStringSubmatch(generatedText, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}

		src, ok := byIndex[n]
		if !ok {
			l.logger.Debug("dropping citation marker with no matching source", "index", n)
			continue
		}
		citations = append(citations, Citation{
			DocID:          src.DocID,
			ChunkID:        src.ChunkID,
			Index:          n,
			Snippet:        src.Snippet,
			RelevanceScore: src.Similarity,
		})
	}
	return citations
}

// Persist inserts one row per citation. Persistence is best-effort
// enrichment: a failed insert is logged and does not stop the remaining
// inserts; the joined error is returned for observability but callers must
// not fail delivery of generated content on it.
func (l *Ledger) Persist(ctx context.Context, citations []Citation) error {
	var errs []error
	for _, c := range citations {
		err := l.queries.InsertCitation(ctx, postgres.InsertCitationParams{
			BriefID:        uuidOrNull(c.BriefID),
			ContentID:      uuidOrNull(c.ContentID),
			DocumentID:     c.DocID,
			ChunkID:        uuidOrNull(c.ChunkID),
			CitationIndex:  int32(c.Index),
			Snippet:        pgtype.Text{String: c.Snippet, Valid: c.Snippet != ""},
			RelevanceScore: pgtype.Float8{Float64: c.RelevanceScore, Valid: true},
		})
		if err != nil {
			l.logger.Warn("failed to persist citation",
				"document_id", c.DocID, "index", c.Index, "error", err)
			errs = append(errs, fmt.Errorf("citation [%d]: %w", c.Index, err))
		}
	}
	return errors.Join(errs...)
}

func uuidOrNull(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: id != uuid.Nil}
}
