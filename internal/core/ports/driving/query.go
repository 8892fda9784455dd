package driving

import (
	"context"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

// QueryService answers natural-language questions over the indexed
// collection. Each call is stateless.
type QueryService interface {
	// Query embeds the question, retrieves supporting chunks, assembles
	// a bounded prompt and calls the generation service. Empty query text
	// or non-positive topK fail fast with domain.ErrInvalidArgument.
	Query(ctx context.Context, text string, topK int) (*domain.Answer, error)

	// Stats reports the collection statistics.
	Stats(ctx context.Context) (domain.CollectionStats, error)
}
