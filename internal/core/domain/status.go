package domain

// DocumentStatus is the ingestion state of a document. Transitions are
// monotonic: pending -> converted -> chunked -> embedded, with failed
// reachable from any non-terminal state. A failed or embedded document can
// only restart at pending through re-ingestion, which first deletes its
// chunks and index entries.
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusConverted DocumentStatus = "converted"
	StatusChunked   DocumentStatus = "chunked"
	StatusEmbedded  DocumentStatus = "embedded"
	StatusFailed    DocumentStatus = "failed"
)

// Valid reports whether s is a known status value.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConverted, StatusChunked, StatusEmbedded, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the ingestion pipeline is done with the document.
func (s DocumentStatus) Terminal() bool {
	return s == StatusEmbedded || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal status
// transition.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	if next == StatusFailed {
		return !s.Terminal()
	}
	switch s {
	case StatusPending:
		return next == StatusConverted
	case StatusConverted:
		return next == StatusChunked
	case StatusChunked:
		return next == StatusEmbedded
	case StatusEmbedded, StatusFailed:
		return false
	}
	return false
}

// IngestStage names a pipeline stage for failure reporting.
type IngestStage string

const (
	StageConvert IngestStage = "convert"
	StageChunk   IngestStage = "chunk"
	StageEmbed   IngestStage = "embed"
	StageIndex   IngestStage = "index"
)
