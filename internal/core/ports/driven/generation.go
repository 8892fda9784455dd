package driven

import "context"

// GenerationService produces answer text from an assembled prompt. It is an
// opaque text-in/text-out service; the pipeline never inspects or
// post-processes what it returns.
//
// Implementations may include:
//   - Ollama (local models)
//   - OpenAI (chat completions)
type GenerationService interface {
	// Generate produces a completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
