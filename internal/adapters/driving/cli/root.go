// Package cli implements the quarry command-line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	configfile "github.com/quarry-labs/quarry-cli/internal/adapters/driven/config/file"
	ollamaembed "github.com/quarry-labs/quarry-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/quarry-labs/quarry-cli/internal/adapters/driven/embedding/openai"
	ollamagen "github.com/quarry-labs/quarry-cli/internal/adapters/driven/llm/ollama"
	openaigen "github.com/quarry-labs/quarry-cli/internal/adapters/driven/llm/openai"
	"github.com/quarry-labs/quarry-cli/internal/adapters/driven/storage/sqlite"
	"github.com/quarry-labs/quarry-cli/internal/chunker"
	"github.com/quarry-labs/quarry-cli/internal/converters"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driving"
	"github.com/quarry-labs/quarry-cli/internal/core/services"
	"github.com/quarry-labs/quarry-cli/internal/logger"
	"github.com/quarry-labs/quarry-cli/internal/retry"
)

// version is set by Execute.
var version = "dev"

// Persistent flags.
var (
	verbose   bool
	configDir string
	dataDir   string
)

// Services wired lazily by ensureServices; commands that only need the
// format registry go through ensureRegistry and skip the backends entirely.
var (
	settings      *driven.Settings
	registry      driven.ConverterRegistry
	store         *sqlite.Store
	ingestService driving.IngestService
	queryService  driving.QueryService
)

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Ask questions over your documents",
	Long: `Quarry ingests PDF, DOCX, DOC and plain-text files into a local
SQLite-backed vector index and answers questions over them with
retrieval-augmented generation. Everything runs locally by default;
an OpenAI-compatible backend can be configured instead of Ollama.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.quarry)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the index database")
}

// Execute runs the CLI and releases resources afterwards.
func Execute(v string) error {
	version = v
	defer shutdown()
	return rootCmd.Execute()
}

func shutdown() {
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Warn("Closing store: %v", err)
		}
		store = nil
	}
}

// ensureRegistry sets up the converter registry only.
func ensureRegistry() driven.ConverterRegistry {
	if registry == nil {
		registry = converters.NewDefaultRegistry()
	}
	return registry
}

// ensureServices builds the full pipeline from the effective settings.
// Idempotent; commands call it from RunE so flag values are final.
func ensureServices() error {
	if ingestService != nil {
		return nil
	}

	settingsStore, err := configfile.NewSettingsStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	settings, err = settingsStore.Load()
	if err != nil {
		return err
	}
	if dataDir != "" {
		settings.DataDir = dataDir
	}

	store, err = sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	ch, err := chunker.New(settings.Chunking.MaxChars, settings.Chunking.Overlap)
	if err != nil {
		return err
	}

	backend, err := buildEmbeddingBackend(settings.Embedding)
	if err != nil {
		return err
	}
	embedder := services.NewBatchingEmbedder(backend, services.BatchConfig{
		BatchSize:         settings.Embedding.BatchSize,
		RequestsPerSecond: settings.Embedding.RequestsPerSecond,
		Retry:             retry.New(settings.Embedding.MaxAttempts, 0),
	})

	generator, err := buildGenerationBackend(settings.Generation)
	if err != nil {
		return err
	}

	index := store.VectorIndex()
	ingestService = services.NewIngestOrchestrator(
		ensureRegistry(), ch, embedder, store.DocumentStore(), index)
	queryService = services.NewQueryOrchestrator(
		services.NewRetriever(embedder, index, settings.Query.MinScore),
		services.NewContextAssembler(settings.Query.ContextBudget),
		generator,
		index,
		driven.GenerateOptions{
			MaxTokens:   settings.Generation.MaxTokens,
			Temperature: settings.Generation.Temperature,
		},
	)
	return nil
}

func buildEmbeddingBackend(cfg driven.BackendSettings) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil
	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
	}
	return nil, errors.New("unknown embedding provider: " + cfg.Provider)
}

func buildGenerationBackend(cfg driven.GenerationSettings) (driven.GenerationService, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamagen.NewGenerationService(ollamagen.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil
	case "openai":
		return openaigen.NewGenerationService(openaigen.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	}
	return nil, errors.New("unknown generation provider: " + cfg.Provider)
}
