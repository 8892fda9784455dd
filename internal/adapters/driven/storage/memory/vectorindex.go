package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
	"github.com/quarry-labs/quarry-cli/internal/vectors"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex using
// brute-force cosine similarity over stored unit vectors.
//
// The single RWMutex gives batch atomicity and snapshot-consistent reads:
// a search either sees a document's whole batch or none of it.
type VectorIndex struct {
	mu        sync.RWMutex
	entries   map[string]domain.IndexEntry // by chunk ID
	modelID   string
	dimension int
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{entries: make(map[string]domain.IndexEntry)}
}

// Upsert inserts or replaces a batch of entries atomically. The batch is
// validated in full before anything is applied, so a failure leaves the
// index untouched.
func (idx *VectorIndex) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	modelID, dimension := idx.modelID, idx.dimension
	for _, e := range entries {
		if e.ChunkID == "" || e.DocumentID == "" {
			return fmt.Errorf("%w: entry missing chunk or document ID", domain.ErrIndexTransaction)
		}
		if len(e.Embedding) == 0 {
			return fmt.Errorf("%w: entry %s has no embedding", domain.ErrIndexTransaction, e.ChunkID)
		}
		if modelID == "" {
			modelID, dimension = e.ModelID, len(e.Embedding)
		}
		if e.ModelID != modelID {
			return fmt.Errorf("%w: index holds %q, batch has %q",
				domain.ErrModelMismatch, modelID, e.ModelID)
		}
		if len(e.Embedding) != dimension {
			return fmt.Errorf("%w: dimension %d does not match index dimension %d",
				domain.ErrIndexTransaction, len(e.Embedding), dimension)
		}
	}

	for _, e := range entries {
		idx.entries[e.ChunkID] = e
	}
	idx.modelID, idx.dimension = modelID, dimension
	return nil
}

// DeleteByDocument removes every entry belonging to the document.
func (idx *VectorIndex) DeleteByDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for chunkID, e := range idx.entries {
		if e.DocumentID == documentID {
			delete(idx.entries, chunkID)
		}
	}
	return nil
}

// Search returns up to topK entries by descending similarity, ties broken
// by (DocumentID, Ordinal).
func (idx *VectorIndex) Search(_ context.Context, query []float32, topK int) (domain.RetrievalResult, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.entries) > 0 && len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d",
			domain.ErrModelMismatch, len(query), idx.dimension)
	}

	hits := make(domain.RetrievalResult, 0, len(idx.entries))
	for _, e := range idx.entries {
		hits = append(hits, domain.RetrievedChunk{
			ChunkID:        e.ChunkID,
			DocumentID:     e.DocumentID,
			Ordinal:        e.Ordinal,
			Text:           e.Text,
			SourceFilename: e.SourceFilename,
			Score:          vectors.Dot(e.Embedding, query),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].Ordinal < hits[j].Ordinal
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Stats computes collection statistics from the index contents.
func (idx *VectorIndex) Stats(_ context.Context) (domain.CollectionStats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docs := make(map[string]struct{})
	for _, e := range idx.entries {
		docs[e.DocumentID] = struct{}{}
	}
	return domain.CollectionStats{
		TotalDocuments:     len(docs),
		TotalChunks:        len(idx.entries),
		EmbeddingDimension: idx.dimension,
		ModelID:            idx.modelID,
	}, nil
}

// Close releases resources. In-memory indexes have none.
func (idx *VectorIndex) Close() error {
	return nil
}
