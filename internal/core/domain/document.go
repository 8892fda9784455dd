package domain

import "time"

// RawFile is an uploaded document before any processing.
type RawFile struct {
	// Filename is the name the file was uploaded with.
	Filename string

	// MIMEType is the declared content type. May be empty or generic
	// (application/octet-stream); the converter registry sniffs the
	// extension in that case.
	MIMEType string

	// Content is the raw file bytes.
	Content []byte
}

// Document represents an ingested document and its processing state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original source filename.
	Filename string

	// MIMEType is the resolved content type used for conversion.
	MIMEType string

	// Title is a human-readable title derived from the content.
	Title string

	// Raw is the original uploaded bytes, kept so a document can be
	// re-ingested without a second upload.
	Raw []byte

	// Content is the normalised UTF-8 text after conversion.
	Content string

	// Status is the current ingestion state.
	Status DocumentStatus

	// FailedStage records which pipeline stage failed when Status is
	// StatusFailed. Empty otherwise.
	FailedStage IngestStage

	// FailureReason is the error message for a failed ingestion.
	FailureReason string

	// CreatedAt is when the document was uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// Chunk is a contiguous slice of a document's normalised text.
// It is the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Ordinal is the 0-based position within the document. Ordinals are
	// contiguous and ordered by Start offset.
	Ordinal int

	// Text is the chunk content. Immutable once created.
	Text string

	// Start and End are the chunk's span in the document text,
	// 0 <= Start < End <= len(Content). Neighbouring spans may overlap.
	Start int
	End   int

	// TokenEstimate is a rough token count used for prompt budgeting.
	TokenEstimate int
}

// IndexEntry is the persisted unit in the vector index: an embedding plus
// the denormalised metadata needed to answer a query without a second
// lookup.
type IndexEntry struct {
	ChunkID        string
	DocumentID     string
	Ordinal        int
	Text           string
	SourceFilename string

	// Embedding is the L2-normalised vector for the chunk text.
	Embedding []float32

	// ModelID identifies the embedding model that produced the vector.
	// All entries in one index must share it.
	ModelID string
}

// RetrievedChunk is a single similarity search hit.
type RetrievedChunk struct {
	ChunkID        string
	DocumentID     string
	Ordinal        int
	Text           string
	SourceFilename string

	// Score is the cosine similarity to the query vector.
	Score float64
}

// RetrievalResult is an ordered sequence of hits, descending by score with
// ties broken by (DocumentID, Ordinal) ascending.
type RetrievalResult []RetrievedChunk

// CollectionStats is a read-only view over the index. It is always computed,
// never persisted.
type CollectionStats struct {
	TotalDocuments     int
	TotalChunks        int
	EmbeddingDimension int
	ModelID            string
}

// Answer is the result of a query: the generated text plus the retrieval
// hits that supported it, so callers can show provenance.
type Answer struct {
	Text    string
	Sources RetrievalResult
}
