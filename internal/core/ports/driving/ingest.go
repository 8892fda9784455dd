package driving

import (
	"context"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

// IngestService coordinates the ingestion pipeline:
// convert -> chunk -> embed -> index.
type IngestService interface {
	// Ingest processes an uploaded file end to end. The returned document
	// carries the final status; a pipeline failure leaves the document in
	// StatusFailed with the failing stage recorded, and the error is also
	// returned.
	Ingest(ctx context.Context, file domain.RawFile) (*domain.Document, error)

	// Reingest re-runs the pipeline for an existing document from its
	// stored raw bytes. Prior chunks and index entries are deleted before
	// the document restarts at StatusPending.
	Reingest(ctx context.Context, documentID string) (*domain.Document, error)

	// GetDocument returns a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all known documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document together with its chunks and
	// index entries. Fails with domain.ErrNotFound for unknown IDs.
	DeleteDocument(ctx context.Context, id string) error
}
