package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driving"
	"github.com/quarry-labs/quarry-cli/internal/logger"
)

// Ensure QueryOrchestrator implements the interface.
var _ driving.QueryService = (*QueryOrchestrator)(nil)

// DefaultTopK is the number of chunks retrieved when the caller does not
// choose one.
const DefaultTopK = 3

// QueryOrchestrator answers questions over the indexed collection:
// embed the question, retrieve supporting chunks, assemble a bounded prompt,
// generate. Each call is stateless.
type QueryOrchestrator struct {
	retriever *Retriever
	assembler *ContextAssembler
	generator driven.GenerationService
	index     driven.VectorIndex
	genOpts   driven.GenerateOptions
}

// NewQueryOrchestrator wires the query pipeline together.
func NewQueryOrchestrator(
	retriever *Retriever,
	assembler *ContextAssembler,
	generator driven.GenerationService,
	index driven.VectorIndex,
	genOpts driven.GenerateOptions,
) *QueryOrchestrator {
	return &QueryOrchestrator{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		index:     index,
		genOpts:   genOpts,
	}
}

// Query answers the question using up to topK retrieved chunks. The answer
// carries the chunks that made it into the prompt, so callers can show
// provenance.
func (o *QueryOrchestrator) Query(ctx context.Context, text string, topK int) (*domain.Answer, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", domain.ErrInvalidArgument, topK)
	}

	hits, err := o.retriever.Retrieve(ctx, text, topK)
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d chunks for query", len(hits))

	prompt, used := o.assembler.BuildPrompt(text, hits)

	answer, err := o.generator.Generate(ctx, prompt, o.genOpts)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:    strings.TrimSpace(answer),
		Sources: used,
	}, nil
}

// Stats reports the collection statistics.
func (o *QueryOrchestrator) Stats(ctx context.Context) (domain.CollectionStats, error) {
	return o.index.Stats(ctx)
}
