package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry-cli/internal/converters"
	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driving"
	"github.com/quarry-labs/quarry-cli/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestService = (*IngestOrchestrator)(nil)

// Chunking is the chunker contract the orchestrator needs. Satisfied by
// chunker.Chunker.
type Chunking interface {
	Split(documentID, text string) ([]domain.Chunk, error)
}

// IngestOrchestrator runs the ingestion pipeline:
// convert -> chunk -> embed -> index. Document status moves monotonically
// through pending, converted, chunked, embedded; any stage failure parks the
// document in failed with the stage and reason recorded, and the raw bytes
// stay stored so re-ingestion can start over.
type IngestOrchestrator struct {
	registry driven.ConverterRegistry
	chunker  Chunking
	embedder *BatchingEmbedder
	store    driven.DocumentStore
	index    driven.VectorIndex

	// now is replaceable in tests.
	now func() time.Time
}

// NewIngestOrchestrator wires the pipeline stages together.
func NewIngestOrchestrator(
	registry driven.ConverterRegistry,
	chunker Chunking,
	embedder *BatchingEmbedder,
	store driven.DocumentStore,
	index driven.VectorIndex,
) *IngestOrchestrator {
	return &IngestOrchestrator{
		registry: registry,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		index:    index,
		now:      time.Now,
	}
}

// Ingest processes an uploaded file end to end. Unsupported formats are
// rejected before anything is persisted; all later failures leave a failed
// document behind for inspection and re-ingestion.
func (o *IngestOrchestrator) Ingest(ctx context.Context, file domain.RawFile) (*domain.Document, error) {
	// Resolve the converter up front so unsupported formats never create
	// a document record.
	conv, mimeType, err := o.registry.Resolve(&file)
	if err != nil {
		return nil, err
	}

	now := o.now().UTC()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		Filename:  file.Filename,
		MIMEType:  mimeType,
		Raw:       file.Content,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Ingesting %s (%s)", doc.Filename, mimeType)
	return o.runPipeline(ctx, doc, conv)
}

// Reingest re-runs the pipeline for a stored document from its raw bytes.
// Prior chunks and index entries are removed first, so a half-indexed or
// failed document always restarts from a clean slate.
func (o *IngestOrchestrator) Reingest(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := o.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	raw := domain.RawFile{
		Filename: doc.Filename,
		MIMEType: doc.MIMEType,
		Content:  doc.Raw,
	}
	conv, mimeType, err := o.registry.Resolve(&raw)
	if err != nil {
		return nil, err
	}

	if err := o.index.DeleteByDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("clear index entries: %w", err)
	}
	if err := o.store.DeleteChunks(ctx, documentID); err != nil {
		return nil, fmt.Errorf("clear chunks: %w", err)
	}

	doc.MIMEType = mimeType
	doc.Status = domain.StatusPending
	doc.Content = ""
	doc.FailedStage = ""
	doc.FailureReason = ""
	doc.UpdatedAt = o.now().UTC()
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	logger.Info("Re-ingesting %s (%s)", doc.Filename, doc.ID)
	return o.runPipeline(ctx, doc, conv)
}

// GetDocument returns a document by ID.
func (o *IngestOrchestrator) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return o.store.GetDocument(ctx, id)
}

// ListDocuments returns all known documents, newest first.
func (o *IngestOrchestrator) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return o.store.ListDocuments(ctx)
}

// DeleteDocument removes a document with its chunks and index entries.
func (o *IngestOrchestrator) DeleteDocument(ctx context.Context, id string) error {
	// Check existence first so the index is untouched for unknown IDs.
	if _, err := o.store.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := o.index.DeleteByDocument(ctx, id); err != nil {
		return fmt.Errorf("delete index entries: %w", err)
	}
	if err := o.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// runPipeline drives a pending document through the remaining stages.
func (o *IngestOrchestrator) runPipeline(ctx context.Context, doc *domain.Document, conv driven.Converter) (*domain.Document, error) {
	logger.Section(doc.Filename)

	raw := domain.RawFile{
		Filename: doc.Filename,
		MIMEType: doc.MIMEType,
		Content:  doc.Raw,
	}

	// Convert.
	text, err := conv.Convert(ctx, &raw)
	if err != nil {
		return doc, o.fail(ctx, doc, domain.StageConvert, err)
	}
	doc.Content = text
	doc.Title = converters.ExtractTitle(text, doc.Filename)
	if err := o.advance(ctx, doc, domain.StatusConverted, domain.StageConvert); err != nil {
		return doc, err
	}

	// Chunk.
	chunks, err := o.chunker.Split(doc.ID, text)
	if err != nil {
		return doc, o.fail(ctx, doc, domain.StageChunk, err)
	}
	if err := o.store.SaveChunks(ctx, chunks); err != nil {
		return doc, o.fail(ctx, doc, domain.StageChunk, err)
	}
	if err := o.advance(ctx, doc, domain.StatusChunked, domain.StageChunk); err != nil {
		return doc, err
	}
	logger.Debug("Split %s into %d chunks", doc.Filename, len(chunks))

	// Embed.
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := o.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return doc, o.fail(ctx, doc, domain.StageEmbed, err)
	}

	// Index.
	entries := make([]domain.IndexEntry, len(chunks))
	for i, chunk := range chunks {
		entries[i] = domain.IndexEntry{
			ChunkID:        chunk.ID,
			DocumentID:     chunk.DocumentID,
			Ordinal:        chunk.Ordinal,
			Text:           chunk.Text,
			SourceFilename: doc.Filename,
			Embedding:      embeddings[i],
			ModelID:        o.embedder.ModelName(),
		}
	}
	if err := o.index.Upsert(ctx, entries); err != nil {
		return doc, o.fail(ctx, doc, domain.StageIndex, err)
	}
	if err := o.advance(ctx, doc, domain.StatusEmbedded, domain.StageIndex); err != nil {
		return doc, err
	}

	logger.Info("Ingested %s: %d chunks indexed", doc.Filename, len(chunks))
	return doc, nil
}

// advance moves the document to the next status and persists it. A failed
// save is routed through fail so the document is not left parked at an
// intermediate status with nothing recorded.
func (o *IngestOrchestrator) advance(ctx context.Context, doc *domain.Document, next domain.DocumentStatus, stage domain.IngestStage) error {
	if !doc.Status.CanTransition(next) {
		return fmt.Errorf("illegal status transition %s -> %s for document %s", doc.Status, next, doc.ID)
	}
	doc.Status = next
	doc.UpdatedAt = o.now().UTC()
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		return o.fail(ctx, doc, stage, fmt.Errorf("save document: %w", err))
	}
	return nil
}

// fail records the failing stage and reason on the document. The original
// stage error is returned; a secondary persistence failure is only logged
// so it cannot mask the root cause.
func (o *IngestOrchestrator) fail(ctx context.Context, doc *domain.Document, stage domain.IngestStage, stageErr error) error {
	doc.Status = domain.StatusFailed
	doc.FailedStage = stage
	doc.FailureReason = stageErr.Error()
	doc.UpdatedAt = o.now().UTC()
	if err := o.store.SaveDocument(ctx, doc); err != nil {
		logger.Warn("Failed to record %s failure for document %s: %v", stage, doc.ID, err)
	}
	return fmt.Errorf("%s: %w", stage, stageErr)
}
