package driven

import (
	"context"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

// VectorIndex stores index entries and answers nearest-neighbour similarity
// queries. The similarity metric is cosine similarity on L2-normalised
// vectors, computed as a dot product; ranking order is exact, not
// approximated.
//
// Writes for a given document are serialised: the index allows at most one
// in-flight Upsert or DeleteByDocument per document ID. Reads observe a
// consistent snapshot; a concurrently ingested document is visible either
// fully or not at all.
type VectorIndex interface {
	// Upsert inserts or replaces a batch of entries. The batch is atomic:
	// either every entry becomes searchable or none does. A batch whose
	// ModelID differs from the entries already indexed fails with
	// domain.ErrModelMismatch.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// DeleteByDocument transactionally removes every entry belonging to
	// the document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Search returns up to topK entries ordered by descending similarity
	// to the query vector, ties broken by (DocumentID, Ordinal). Fewer
	// than topK entries in the index is not an error. topK <= 0 fails
	// with domain.ErrInvalidArgument.
	Search(ctx context.Context, query []float32, topK int) (domain.RetrievalResult, error)

	// Stats computes collection statistics from the index contents.
	Stats(ctx context.Context) (domain.CollectionStats, error)

	// Close flushes and releases the index.
	Close() error
}
