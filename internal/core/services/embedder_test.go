package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/retry"
	"github.com/quarry-labs/quarry-cli/internal/vectors"
)

// fastRetry is a two-attempt policy that never actually sleeps.
func fastRetry(attempts int) retry.Policy {
	return retry.New(attempts, time.Millisecond).
		WithSleep(func(context.Context, time.Duration) error { return nil })
}

func TestEmbedTexts_SlicesIntoBatches(t *testing.T) {
	backend := newMockEmbedding()
	embedder := NewBatchingEmbedder(backend, BatchConfig{BatchSize: 2, Retry: fastRetry(1)})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := embedder.EmbedTexts(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vecs, 5)
	assert.Equal(t, 3, backend.batchCalls, "5 texts at batch size 2 is 3 requests")
	assert.Zero(t, backend.itemCalls)
}

func TestEmbedTexts_NormalisesOutput(t *testing.T) {
	backend := newMockEmbedding()
	embedder := NewBatchingEmbedder(backend, BatchConfig{Retry: fastRetry(1)})

	vecs, err := embedder.EmbedTexts(context.Background(), []string{"hello"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.InDelta(t, 1.0, vectors.Dot(vecs[0], vecs[0]), 1e-5, "unit length")
}

func TestEmbedTexts_RetriesTransientBatchFailure(t *testing.T) {
	backend := newMockEmbedding()
	backend.failBatches = 1

	embedder := NewBatchingEmbedder(backend, BatchConfig{Retry: fastRetry(3)})

	vecs, err := embedder.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, 2, backend.batchCalls)
}

func TestEmbedTexts_FallsBackToPerItem(t *testing.T) {
	backend := newMockEmbedding()
	backend.failBatches = 10 // every batch attempt fails

	embedder := NewBatchingEmbedder(backend, BatchConfig{Retry: fastRetry(2)})

	vecs, err := embedder.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 3, backend.itemCalls, "one item call per text after batch gives up")
}

func TestEmbedTexts_PerItemFailureIdentifiesText(t *testing.T) {
	backend := newMockEmbedding()
	backend.failBatches = 10
	backend.failTexts = "poison"

	embedder := NewBatchingEmbedder(backend, BatchConfig{Retry: fastRetry(2)})

	_, err := embedder.EmbedTexts(context.Background(), []string{"fine", "poison pill"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "embed text 1")
}

func TestEmbedTexts_PermanentErrorNotRetried(t *testing.T) {
	backend := newMockEmbedding()
	backend.failBatches = 10
	backend.failErr = domain.ErrEmbedding // not transient

	embedder := NewBatchingEmbedder(backend, BatchConfig{Retry: fastRetry(5)})

	vecs, err := embedder.EmbedTexts(context.Background(), []string{"x"})
	require.NoError(t, err, "per-item fallback rescues the batch")
	assert.Len(t, vecs, 1)
	assert.Equal(t, 1, backend.batchCalls, "permanent failure must not burn the attempt budget")
	assert.Equal(t, 1, backend.itemCalls)
}

func TestEmbedTexts_PoisonedItemIsolatedPermanently(t *testing.T) {
	backend := newMockEmbedding()
	backend.failBatches = 10
	backend.failTexts = "poison"
	backend.failErr = domain.ErrEmbedding

	embedder := NewBatchingEmbedder(backend, BatchConfig{Retry: fastRetry(5)})

	_, err := embedder.EmbedTexts(context.Background(), []string{"ok", "poison"})
	require.ErrorIs(t, err, domain.ErrEmbedding)
	// One batch attempt, then one item attempt each; the poisoned item is
	// not retried.
	assert.Equal(t, 1, backend.batchCalls)
	assert.Equal(t, 2, backend.itemCalls)
}

func TestEmbedTexts_Empty(t *testing.T) {
	embedder := NewBatchingEmbedder(newMockEmbedding(), BatchConfig{})

	vecs, err := embedder.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedQuery_Normalised(t *testing.T) {
	embedder := NewBatchingEmbedder(newMockEmbedding(), BatchConfig{Retry: fastRetry(1)})

	vec, err := embedder.EmbedQuery(context.Background(), "what is quarry")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectors.Dot(vec, vec), 1e-5)
}

func TestEmbedQuery_RateLimited(t *testing.T) {
	backend := newMockEmbedding()
	// Generous rate so the test does not stall; presence of the limiter is
	// what is being exercised.
	embedder := NewBatchingEmbedder(backend, BatchConfig{RequestsPerSecond: 1000, Retry: fastRetry(1)})

	_, err := embedder.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.itemCalls)
}
