package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates malformed caller input, such as an
	// empty query or a non-positive top-k.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidConfig indicates an impossible configuration, such as a
	// chunk overlap that is not smaller than the chunk size.
	ErrInvalidConfig = errors.New("invalid configuration")

	// Conversion errors.

	// ErrUnsupportedFormat indicates a file type outside PDF, DOCX, DOC
	// and TXT. This is detected before any conversion is attempted.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptDocument indicates the input could not be parsed at all.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrConversion indicates the conversion toolchain failed or produced
	// empty output for a non-empty input.
	ErrConversion = errors.New("document conversion failed")

	// ErrConversionTimeout indicates the external conversion tool did not
	// finish within its deadline.
	ErrConversionTimeout = errors.New("document conversion timed out")

	// Embedding errors.

	// ErrEmbedding indicates one or more texts could not be embedded
	// after per-item retries.
	ErrEmbedding = errors.New("embedding failed")

	// ErrModelUnavailable indicates the embedding backend could not be
	// reached within the retry budget.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// Index errors.

	// ErrIndexTransaction indicates a vector index batch failed and was
	// rolled back. It is never retried automatically; the caller must
	// re-submit.
	ErrIndexTransaction = errors.New("index transaction failed")

	// ErrModelMismatch indicates an upsert with a different embedding
	// model than the index holds. Mixed-model search is never allowed;
	// the collection must be re-indexed.
	ErrModelMismatch = errors.New("embedding model mismatch, reindex required")

	// ErrGenerationUnavailable indicates the text generation service
	// could not be reached.
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)
