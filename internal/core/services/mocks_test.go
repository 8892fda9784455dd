package services

import (
	"context"
	"strings"
	"sync"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedding implements driven.EmbeddingService for testing. Vectors are
// derived from the text length so distinct inputs stay distinguishable.
type mockEmbedding struct {
	mu         sync.Mutex
	batchCalls int
	itemCalls  int

	dims int
	// model overrides the reported model name when set.
	model string

	// failBatches makes the first n EmbedBatch calls fail with failErr.
	failBatches int
	// failTexts makes Embed fail for texts containing the substring.
	failTexts string
	failErr   error
}

func newMockEmbedding() *mockEmbedding {
	return &mockEmbedding{dims: 3, failErr: domain.ErrModelUnavailable}
}

func (m *mockEmbedding) vector(text string) []float32 {
	return []float32{float32(len(text)), 1, 0}
}

func (m *mockEmbedding) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itemCalls++
	if m.failTexts != "" && strings.Contains(text, m.failTexts) {
		return nil, m.failErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.failBatches > 0 {
		m.failBatches--
		return nil, m.failErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int { return m.dims }

func (m *mockEmbedding) ModelName() string {
	if m.model != "" {
		return m.model
	}
	return "mock-embedder"
}

func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// mockGeneration implements driven.GenerationService for testing.
type mockGeneration struct {
	response string
	err      error

	lastPrompt string
	lastOpts   driven.GenerateOptions
}

func (m *mockGeneration) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockGeneration) ModelName() string            { return "mock-generator" }
func (m *mockGeneration) Ping(_ context.Context) error { return nil }
func (m *mockGeneration) Close() error                 { return nil }

// mockConverter implements driven.Converter for testing.
type mockConverter struct {
	text string
	err  error
}

func (m *mockConverter) SupportedMIMETypes() []string { return []string{"text/plain"} }

func (m *mockConverter) Convert(_ context.Context, _ *domain.RawFile) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

// mockRegistry implements driven.ConverterRegistry for testing.
type mockRegistry struct {
	converter driven.Converter
	err       error
}

func (m *mockRegistry) Resolve(raw *domain.RawFile) (driven.Converter, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.converter, "text/plain", nil
}

func (m *mockRegistry) SupportedExtensions() []string { return []string{".txt"} }

// failingStore wraps a nested store and fails one numbered SaveDocument
// call for failure injection.
type failingStore struct {
	driven.DocumentStore
	saves   int
	failOn  int // 1-based call number to fail
	saveErr error
}

func (f *failingStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	f.saves++
	if f.saves == f.failOn {
		return f.saveErr
	}
	return f.DocumentStore.SaveDocument(ctx, doc)
}

// failingIndex wraps errors around a nested index for failure injection.
type failingIndex struct {
	driven.VectorIndex
	upsertErr error
}

func (f *failingIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.VectorIndex.Upsert(ctx, entries)
}
