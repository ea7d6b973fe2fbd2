package document

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/draftwise/draftwise/internal/postgres"
)

// Compile-time check that the real query layer satisfies the consumer
// interface.
var _ Querier = (*postgres.Queries)(nil)

// mockQuerier is an in-memory Querier for unit tests.
type mockQuerier struct {
	docs     map[uuid.UUID]postgres.Document
	versions []postgres.DocumentVersion
	chunks   map[uuid.UUID][]postgres.InsertDocumentChunkParams

	upsertErr error
	findErr   error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{
		docs:   make(map[uuid.UUID]postgres.Document),
		chunks: make(map[uuid.UUID][]postgres.InsertDocumentChunkParams),
	}
}

func (m *mockQuerier) FindActiveDocumentByIdentity(_ context.Context, arg postgres.FindActiveDocumentByIdentityParams) (postgres.Document, error) {
	if m.findErr != nil {
		return postgres.Document{}, m.findErr
	}
	for _, d := range m.docs {
		if d.IsActive && d.Title == arg.Title &&
			d.SourceURL.Valid == arg.SourceURL.Valid &&
			d.SourceURL.String == arg.SourceURL.String {
			return d, nil
		}
	}
	return postgres.Document{}, pgx.ErrNoRows
}

func (m *mockQuerier) GetDocument(_ context.Context, id uuid.UUID) (postgres.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return postgres.Document{}, pgx.ErrNoRows
	}
	return d, nil
}

func (m *mockQuerier) UpsertDocument(_ context.Context, arg postgres.UpsertDocumentParams) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.docs[arg.ID] = postgres.Document{
		ID:            arg.ID,
		Title:         arg.Title,
		SourceURL:     arg.SourceURL,
		Author:        arg.Author,
		PublishedAt:   arg.PublishedAt,
		Tags:          arg.Tags,
		Content:       arg.Content,
		VersionNumber: arg.VersionNumber,
		IsActive:      true,
	}
	return nil
}

func (m *mockQuerier) InsertDocumentVersion(_ context.Context, documentID uuid.UUID) error {
	d, ok := m.docs[documentID]
	if !ok {
		return errors.New("no document to archive")
	}
	m.versions = append(m.versions, postgres.DocumentVersion{
		ID:            uuid.New(),
		DocumentID:    d.ID,
		VersionNumber: d.VersionNumber,
		Title:         d.Title,
		SourceURL:     d.SourceURL,
		Author:        d.Author,
		PublishedAt:   d.PublishedAt,
		Tags:          d.Tags,
		Content:       d.Content,
	})
	return nil
}

func (m *mockQuerier) ListDocumentVersions(_ context.Context, documentID uuid.UUID) ([]postgres.DocumentVersion, error) {
	var out []postgres.DocumentVersion
	for _, v := range m.versions {
		if v.DocumentID == documentID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockQuerier) ListActiveDocuments(_ context.Context, arg postgres.ListActiveDocumentsParams) ([]postgres.Document, error) {
	var out []postgres.Document
	for _, d := range m.docs {
		if !d.IsActive {
			continue
		}
		if arg.Author.Valid && (!d.Author.Valid || d.Author.String != arg.Author.String) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockQuerier) SoftDeleteDocument(_ context.Context, id uuid.UUID) (int64, error) {
	d, ok := m.docs[id]
	if !ok || !d.IsActive {
		return 0, nil
	}
	d.IsActive = false
	m.docs[id] = d
	return 1, nil
}

func (m *mockQuerier) DeleteDocumentChunks(_ context.Context, documentID uuid.UUID) error {
	delete(m.chunks, documentID)
	return nil
}

func (m *mockQuerier) InsertDocumentChunk(_ context.Context, arg postgres.InsertDocumentChunkParams) error {
	m.chunks[arg.DocumentID] = append(m.chunks[arg.DocumentID], arg)
	return nil
}

// mockEmbedder returns fixed-width vectors without any network call.
type mockEmbedder struct {
	dim        int
	err        error
	embedCalls int
	batchCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.embedCalls++
	if m.err != nil {
		return nil, m.err
	}
	return make([]float32, m.dim), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = make([]float32, m.dim)
	}
	return vecs, nil
}

func newTestStore(q *mockQuerier) (*Store, *mockEmbedder) {
	e := &mockEmbedder{dim: 768}
	return New(q, nil, e, nil), e
}

func TestIngestNewDocument(t *testing.T) {
	q := newMockQuerier()
	store, emb := newTestStore(q)

	receipt, err := store.Ingest(context.Background(), Input{
		Title:   "Go Proverbs",
		Content: strings.Repeat("Clear is better than clever. ", 100),
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if receipt.VersionNumber != 1 {
		t.Errorf("VersionNumber = %d, want 1", receipt.VersionNumber)
	}
	if receipt.ChunksCreated != 1 {
		t.Errorf("ChunksCreated = %d, want 1", receipt.ChunksCreated)
	}
	if len(q.docs) != 1 {
		t.Errorf("stored %d documents, want 1", len(q.docs))
	}
	if len(q.versions) != 0 {
		t.Errorf("first ingestion archived %d versions, want 0", len(q.versions))
	}
	if emb.embedCalls != 1 || emb.batchCalls != 1 {
		t.Errorf("embed calls = (%d, %d), want one single and one batch call", emb.embedCalls, emb.batchCalls)
	}
}

func TestIngestVersioningInvariant(t *testing.T) {
	q := newMockQuerier()
	store, _ := newTestStore(q)
	ctx := context.Background()

	input := Input{Title: "Style Guide", SourceURL: "https://example.com/style", Content: "First edition content."}

	first, err := store.Ingest(ctx, input, DefaultOptions())
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	input.Content = "Second edition content, substantially revised."
	second, err := store.Ingest(ctx, input, DefaultOptions())
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	if second.DocID != first.DocID {
		t.Error("re-ingestion must keep the same document id")
	}
	if second.VersionNumber != 2 {
		t.Errorf("VersionNumber = %d, want 2", second.VersionNumber)
	}
	if len(q.versions) != 1 {
		t.Fatalf("archived %d versions, want 1", len(q.versions))
	}
	if q.versions[0].VersionNumber != 1 {
		t.Errorf("archived version number = %d, want 1", q.versions[0].VersionNumber)
	}
	if len(q.docs) != 1 {
		t.Errorf("stored %d document rows, want exactly 1 active", len(q.docs))
	}

	input.Content = "Third edition."
	third, err := store.Ingest(ctx, input, DefaultOptions())
	if err != nil {
		t.Fatalf("third Ingest: %v", err)
	}
	if third.VersionNumber != 3 {
		t.Errorf("VersionNumber = %d, want 3", third.VersionNumber)
	}
	if len(q.versions) != 2 {
		t.Errorf("archived %d versions, want 2", len(q.versions))
	}
}

func TestIngestOverwriteInPlace(t *testing.T) {
	q := newMockQuerier()
	store, _ := newTestStore(q)
	ctx := context.Background()

	input := Input{Title: "Notes", Content: "Original."}
	first, err := store.Ingest(ctx, input, DefaultOptions())
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	input.Content = "Replaced wholesale."
	second, err := store.Ingest(ctx, input, Options{CreateVersion: false})
	if err != nil {
		t.Fatalf("overwrite Ingest: %v", err)
	}

	if second.DocID != first.DocID {
		t.Error("overwrite must keep the same document id")
	}
	if second.VersionNumber != 1 {
		t.Errorf("VersionNumber = %d, want unchanged 1", second.VersionNumber)
	}
	if len(q.versions) != 0 {
		t.Errorf("overwrite archived %d versions, want 0", len(q.versions))
	}
	if got := q.docs[first.DocID].Content; got != "Replaced wholesale." {
		t.Errorf("stored content = %q, want the new content", got)
	}
}

func TestIngestFailIfExists(t *testing.T) {
	q := newMockQuerier()
	store, _ := newTestStore(q)
	ctx := context.Background()

	input := Input{Title: "Unique", Content: "Content."}
	if _, err := store.Ingest(ctx, input, DefaultOptions()); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	_, err := store.Ingest(ctx, input, Options{FailIfExists: true})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestIngestSeparateIdentityBuckets(t *testing.T) {
	q := newMockQuerier()
	store, _ := newTestStore(q)
	ctx := context.Background()

	// Same title with and without a URL are different documents.
	withURL, err := store.Ingest(ctx, Input{Title: "Report", SourceURL: "https://example.com/r", Content: "A."}, DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest with URL: %v", err)
	}
	withoutURL, err := store.Ingest(ctx, Input{Title: "Report", Content: "B."}, DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest without URL: %v", err)
	}

	if withURL.DocID == withoutURL.DocID {
		t.Error("URL-less identity must not match the URL-bearing one")
	}
	if withoutURL.VersionNumber != 1 {
		t.Errorf("VersionNumber = %d, want a fresh document at 1", withoutURL.VersionNumber)
	}
}

func TestIngestInputValidation(t *testing.T) {
	store, emb := newTestStore(newMockQuerier())
	ctx := context.Background()

	if _, err := store.Ingest(ctx, Input{Title: "  ", Content: "x"}, DefaultOptions()); !errors.Is(err, ErrMissingTitle) {
		t.Errorf("blank title: got %v, want ErrMissingTitle", err)
	}
	if _, err := store.Ingest(ctx, Input{Title: "T", Content: " \n "}, DefaultOptions()); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("blank content: got %v, want ErrEmptyContent", err)
	}
	if emb.embedCalls != 0 {
		t.Error("invalid input must not reach the embedder")
	}
}

func TestIngestEmbedFailureLeavesStoreUntouched(t *testing.T) {
	q := newMockQuerier()
	store, emb := newTestStore(q)
	emb.err = errors.New("provider down")

	_, err := store.Ingest(context.Background(), Input{Title: "Doc", Content: "Content."}, DefaultOptions())
	if err == nil {
		t.Fatal("want error when embedding fails")
	}
	if len(q.docs) != 0 || len(q.chunks) != 0 {
		t.Error("failed embedding must not write any rows")
	}
}

func TestIngestConcreteScenario(t *testing.T) {
	q := newMockQuerier()
	store, _ := newTestStore(q)
	ctx := context.Background()

	input := Input{
		Title:     "Benchmark Doc",
		SourceURL: "https://example.com/bench",
		Content:   strings.Repeat("Ten chars. ", 273)[:3000],
	}
	opts := Options{ChunkTokens: 800, OverlapTokens: 50, CreateVersion: true}

	first, err := store.Ingest(ctx, input, opts)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	if first.ChunksCreated != 1 {
		t.Fatalf("ChunksCreated = %d, want 1 for a 3,000-char document", first.ChunksCreated)
	}
	if got := q.chunks[first.DocID][0].TokenCount; got != 750 {
		t.Errorf("TokenCount = %d, want 750", got)
	}

	input.Content = strings.Repeat("Entirely new material for the second revision of this document. ", 157) // ~10,000 chars
	second, err := store.Ingest(ctx, input, opts)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.VersionNumber != 2 {
		t.Errorf("VersionNumber = %d, want 2", second.VersionNumber)
	}
	if second.ChunksCreated < 3 {
		t.Errorf("ChunksCreated = %d, want at least 3", second.ChunksCreated)
	}
	if len(q.versions) != 1 {
		t.Errorf("archived %d versions, want exactly 1", len(q.versions))
	}
	if got := len(q.chunks[second.DocID]); got != second.ChunksCreated {
		t.Errorf("stored %d chunks, receipt says %d", got, second.ChunksCreated)
	}
	for i, c := range q.chunks[second.DocID] {
		if int(c.ChunkIndex) != i {
			t.Errorf("chunk %d stored with index %d, want gap-free order", i, c.ChunkIndex)
		}
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store, _ := newTestStore(newMockQuerier())

	_, err := store.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestGetByIDSoftDeleted(t *testing.T) {
	q := newMockQuerier()
	store, _ := newTestStore(q)
	ctx := context.Background()

	receipt, err := store.Ingest(ctx, Input{Title: "Gone", Content: "Content."}, DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := store.SoftDelete(ctx, receipt.DocID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	if _, err := store.GetByID(ctx, receipt.DocID); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for a soft-deleted document", err)
	}
	// Chunks survive the soft delete for audit.
	if len(q.chunks[receipt.DocID]) == 0 {
		t.Error("soft delete must retain chunks")
	}
}

func TestSoftDeleteNotFound(t *testing.T) {
	store, _ := newTestStore(newMockQuerier())

	err := store.SoftDelete(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListVersions(t *testing.T) {
	q := newMockQuerier()
	store, _ := newTestStore(q)
	ctx := context.Background()

	input := Input{Title: "Versioned", Content: "v1"}
	receipt, err := store.Ingest(ctx, input, DefaultOptions())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	input.Content = "v2"
	if _, err := store.Ingest(ctx, input, DefaultOptions()); err != nil {
		t.Fatalf("re-Ingest: %v", err)
	}

	versions, err := store.ListVersions(ctx, receipt.DocID)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Fatalf("got %d versions, want 1", len(versions))
	}
	if versions[0].VersionNumber != 1 || versions[0].Content != "v1" {
		t.Errorf("archived version = (%d, %q), want (1, v1)", versions[0].VersionNumber, versions[0].Content)
	}

	if _, err := store.ListVersions(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for unknown document", err)
	}
}
