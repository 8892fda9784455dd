package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
)

// Retriever turns a query string into ranked chunks: embed the query, search
// the index, apply the optional score floor.
type Retriever struct {
	embedder *BatchingEmbedder
	index    driven.VectorIndex

	// minScore discards hits scoring below it. Zero disables the floor;
	// cosine scores of unrelated text hover around zero anyway, so the
	// floor is opt-in.
	minScore float64
}

// NewRetriever creates a retriever over the embedder and index.
func NewRetriever(embedder *BatchingEmbedder, index driven.VectorIndex, minScore float64) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		minScore: minScore,
	}
}

// Retrieve returns up to topK chunks relevant to the query, best first.
// An empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (domain.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	// A populated index only answers queries embedded with its own model;
	// switching models requires re-ingestion.
	stats, err := r.index.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("index stats: %w", err)
	}
	if stats.TotalChunks > 0 && stats.ModelID != "" && stats.ModelID != r.embedder.ModelName() {
		return nil, fmt.Errorf("%w: index was built with %q but the configured embedding model is %q; re-ingest to switch models",
			domain.ErrModelMismatch, stats.ModelID, r.embedder.ModelName())
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := r.index.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	if r.minScore <= 0 {
		return hits, nil
	}

	filtered := hits[:0]
	for _, hit := range hits {
		if hit.Score >= r.minScore {
			filtered = append(filtered, hit)
		}
	}
	return filtered, nil
}
