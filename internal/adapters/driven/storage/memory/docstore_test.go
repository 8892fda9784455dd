package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

func testDoc(id string, createdAt time.Time) *domain.Document {
	return &domain.Document{
		ID:        id,
		Filename:  id + ".txt",
		MIMEType:  "text/plain",
		Status:    domain.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestSaveAndGetDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDoc("doc-1", time.Now())
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestGetDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveDocument_UpdatesStatus(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := testDoc("doc-1", time.Now())
	require.NoError(t, store.SaveDocument(ctx, doc))

	doc.Status = domain.StatusConverted
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConverted, got.Status)
}

func TestListDocuments_NewestFirst(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	base := time.Now()
	require.NoError(t, store.SaveDocument(ctx, testDoc("older", base.Add(-time.Hour))))
	require.NoError(t, store.SaveDocument(ctx, testDoc("newer", base)))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "newer", docs[0].ID)
	assert.Equal(t, "older", docs[1].ID)
}

func TestChunkLifecycle(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c2", DocumentID: "doc-1", Ordinal: 1, Text: "second", Start: 80, End: 160},
		{ID: "c1", DocumentID: "doc-1", Ordinal: 0, Text: "first", Start: 0, End: 100},
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID, "chunks come back in ordinal order")
	assert.Equal(t, "c2", got[1].ID)

	require.NoError(t, store.DeleteChunks(ctx, "doc-1"))
	got, err = store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteDocument_RemovesChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, testDoc("doc-1", time.Now())))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Ordinal: 0, Text: "only", Start: 0, End: 4},
	}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	store := NewDocumentStore()
	err := store.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
