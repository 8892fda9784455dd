package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry-cli/internal/adapters/driven/storage/memory"
	"github.com/quarry-labs/quarry-cli/internal/chunker"
	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

func newTestOrchestrator(t *testing.T, registry *mockRegistry) (*IngestOrchestrator, *memory.DocumentStore, *memory.VectorIndex) {
	t.Helper()

	ch, err := chunker.New(100, 20)
	require.NoError(t, err)

	store := memory.NewDocumentStore()
	index := memory.NewVectorIndex()
	embedder := NewBatchingEmbedder(newMockEmbedding(), BatchConfig{Retry: fastRetry(1)})

	return NewIngestOrchestrator(registry, ch, embedder, store, index), store, index
}

func textFile(name, content string) domain.RawFile {
	return domain.RawFile{Filename: name, MIMEType: "text/plain", Content: []byte(content)}
}

func TestIngest_FullPipeline(t *testing.T) {
	text := strings.Repeat("quarry indexes documents for retrieval ", 10)
	registry := &mockRegistry{converter: &mockConverter{text: text}}
	o, store, index := newTestOrchestrator(t, registry)
	ctx := context.Background()

	doc, err := o.Ingest(ctx, textFile("notes.txt", text))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmbedded, doc.Status)
	assert.Equal(t, "notes.txt", doc.Filename)
	assert.NotEmpty(t, doc.Title)

	chunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)

	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalDocuments)
	assert.Equal(t, len(chunks), stats.TotalChunks)
	assert.Equal(t, "mock-embedder", stats.ModelID)
}

func TestIngest_UnsupportedFormatRejectedBeforePersist(t *testing.T) {
	registry := &mockRegistry{err: domain.ErrUnsupportedFormat}
	o, store, _ := newTestOrchestrator(t, registry)
	ctx := context.Background()

	_, err := o.Ingest(ctx, textFile("sheet.xlsx", "binary"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs, "rejected file must not leave a document behind")
}

func TestIngest_ConversionFailureRecorded(t *testing.T) {
	registry := &mockRegistry{converter: &mockConverter{err: domain.ErrCorruptDocument}}
	o, store, index := newTestOrchestrator(t, registry)
	ctx := context.Background()

	doc, err := o.Ingest(ctx, textFile("broken.txt", "x"))
	require.ErrorIs(t, err, domain.ErrCorruptDocument)
	require.NotNil(t, doc)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, domain.StageConvert, stored.FailedStage)
	assert.NotEmpty(t, stored.FailureReason)

	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks, "failed document contributes nothing to the index")
}

func TestIngest_IndexFailureRecorded(t *testing.T) {
	registry := &mockRegistry{converter: &mockConverter{text: "short text"}}

	ch, err := chunker.New(100, 20)
	require.NoError(t, err)
	store := memory.NewDocumentStore()
	index := &failingIndex{VectorIndex: memory.NewVectorIndex(), upsertErr: domain.ErrIndexTransaction}
	embedder := NewBatchingEmbedder(newMockEmbedding(), BatchConfig{Retry: fastRetry(1)})
	o := NewIngestOrchestrator(registry, ch, embedder, store, index)

	doc, err := o.Ingest(context.Background(), textFile("a.txt", "short text"))
	require.ErrorIs(t, err, domain.ErrIndexTransaction)

	stored, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, domain.StageIndex, stored.FailedStage)
}

func TestIngest_StatusSaveFailureRecorded(t *testing.T) {
	registry := &mockRegistry{converter: &mockConverter{text: "short text"}}

	ch, err := chunker.New(100, 20)
	require.NoError(t, err)
	// The second save persists the converted status; failing it must not
	// leave the document parked at an intermediate status.
	store := &failingStore{
		DocumentStore: memory.NewDocumentStore(),
		failOn:        2,
		saveErr:       errors.New("disk full"),
	}
	embedder := NewBatchingEmbedder(newMockEmbedding(), BatchConfig{Retry: fastRetry(1)})
	o := NewIngestOrchestrator(registry, ch, embedder, store, memory.NewVectorIndex())

	doc, err := o.Ingest(context.Background(), textFile("a.txt", "short text"))
	require.Error(t, err)
	require.NotNil(t, doc)

	stored, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, domain.StageConvert, stored.FailedStage)
	assert.NotEmpty(t, stored.FailureReason)
}

func TestReingest_ReplacesChunksAndEntries(t *testing.T) {
	registry := &mockRegistry{converter: &mockConverter{text: "original content for the document"}}
	o, store, index := newTestOrchestrator(t, registry)
	ctx := context.Background()

	doc, err := o.Ingest(ctx, textFile("a.txt", "original"))
	require.NoError(t, err)

	firstChunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)

	registry.converter = &mockConverter{text: "replacement content, rather different this time around"}

	redone, err := o.Reingest(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmbedded, redone.Status)
	assert.Equal(t, doc.ID, redone.ID, "identity is stable across re-ingestion")

	secondChunks, err := store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, secondChunks)
	for _, c := range secondChunks {
		for _, old := range firstChunks {
			assert.NotEqual(t, old.ID, c.ID, "prior chunks are deleted, not reused")
		}
	}

	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(secondChunks), stats.TotalChunks)
}

func TestReingest_RecoversFailedDocument(t *testing.T) {
	registry := &mockRegistry{converter: &mockConverter{err: domain.ErrConversion}}
	o, store, _ := newTestOrchestrator(t, registry)
	ctx := context.Background()

	doc, err := o.Ingest(ctx, textFile("flaky.txt", "content"))
	require.ErrorIs(t, err, domain.ErrConversion)

	registry.converter = &mockConverter{text: "conversion works now"}

	redone, err := o.Reingest(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmbedded, redone.Status)
	assert.Empty(t, redone.FailureReason)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmbedded, stored.Status)
	assert.Empty(t, string(stored.FailedStage))
}

func TestReingest_UnknownDocument(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, &mockRegistry{converter: &mockConverter{text: "x"}})

	_, err := o.Reingest(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteDocument_RemovesEverything(t *testing.T) {
	registry := &mockRegistry{converter: &mockConverter{text: "content to delete"}}
	o, store, index := newTestOrchestrator(t, registry)
	ctx := context.Background()

	doc, err := o.Ingest(ctx, textFile("a.txt", "content"))
	require.NoError(t, err)

	require.NoError(t, o.DeleteDocument(ctx, doc.ID))

	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stats, err := index.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalChunks)

	assert.ErrorIs(t, o.DeleteDocument(ctx, doc.ID), domain.ErrNotFound)
}
