package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
	"github.com/quarry-labs/quarry-cli/internal/logger"
	"github.com/quarry-labs/quarry-cli/internal/retry"
	"github.com/quarry-labs/quarry-cli/internal/vectors"
)

// Default batching parameters.
const (
	DefaultBatchSize = 32
)

// BatchConfig tunes the batching embedder.
type BatchConfig struct {
	// BatchSize is the number of texts per backend request (default: 32).
	BatchSize int

	// RequestsPerSecond throttles backend calls. Zero disables throttling.
	RequestsPerSecond float64

	// Retry is the policy applied to each backend call.
	Retry retry.Policy
}

// BatchingEmbedder slices large text sets into bounded batches, throttles
// and retries backend calls, and L2-normalises every vector it returns.
// Normalisation happens here, in one place, so index and retrieval code can
// rank by plain dot product.
type BatchingEmbedder struct {
	backend   driven.EmbeddingService
	batchSize int
	limiter   *rate.Limiter
	policy    retry.Policy
}

// NewBatchingEmbedder wraps the backend embedding service.
func NewBatchingEmbedder(backend driven.EmbeddingService, cfg BatchConfig) *BatchingEmbedder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.Default
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &BatchingEmbedder{
		backend:   backend,
		batchSize: cfg.BatchSize,
		limiter:   limiter,
		policy:    cfg.Retry,
	}
}

// EmbedTexts embeds every text, preserving order. A failed batch is retried
// whole; if it still fails with a transient error, each text in the batch is
// retried individually so one poisoned input cannot sink its neighbours.
func (e *BatchingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := e.embedBatch(ctx, batch)
		if err != nil {
			logger.Debug("Batch of %d failed (%v), falling back to per-item embedding", len(batch), err)
			vecs, err = e.embedIndividually(ctx, batch, start)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, vecs...)
	}

	for _, v := range out {
		vectors.Normalize(v)
	}
	return out, nil
}

// EmbedQuery embeds a single query string with the same throttling, retry
// and normalisation as document embedding. Query and document vectors must
// come from the same model and the same normalisation or scores are garbage.
func (e *BatchingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		if err := e.wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var embedErr error
		vec, embedErr = e.backend.Embed(ctx, text)
		return classify(embedErr)
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return vectors.Normalize(vec), nil
}

// Dimensions returns the backend vector size.
func (e *BatchingEmbedder) Dimensions() int {
	return e.backend.Dimensions()
}

// ModelName returns the backend model name.
func (e *BatchingEmbedder) ModelName() string {
	return e.backend.ModelName()
}

func (e *BatchingEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var vecs [][]float32
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		if err := e.wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var embedErr error
		vecs, embedErr = e.backend.EmbedBatch(ctx, batch)
		return classify(embedErr)
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(batch) {
		return nil, fmt.Errorf("%w: backend returned %d vectors for %d texts", domain.ErrEmbedding, len(vecs), len(batch))
	}
	return vecs, nil
}

func (e *BatchingEmbedder) embedIndividually(ctx context.Context, batch []string, offset int) ([][]float32, error) {
	vecs := make([][]float32, len(batch))
	for i, text := range batch {
		var vec []float32
		err := e.policy.Do(ctx, func(ctx context.Context) error {
			if err := e.wait(ctx); err != nil {
				return retry.Permanent(err)
			}
			var embedErr error
			vec, embedErr = e.backend.Embed(ctx, text)
			return classify(embedErr)
		})
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", offset+i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (e *BatchingEmbedder) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// classify marks non-transient embedding failures as permanent so the retry
// policy does not waste attempts on input the backend will keep rejecting.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrModelUnavailable) {
		return err
	}
	return retry.Permanent(err)
}
