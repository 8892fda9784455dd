package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
	"github.com/quarry-labs/quarry-cli/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore reads and writes the quarry configuration file.
type SettingsStore struct {
	filePath string

	// getenv is replaceable in tests.
	getenv func(string) string
}

// NewSettingsStore creates a store over configDir/config.toml. An empty
// configDir defaults to ~/.quarry.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".quarry")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
		getenv:   os.Getenv,
	}, nil
}

// Load returns the effective settings: defaults, overlaid by the config
// file, overlaid by QUARRY_* environment variables.
func (s *SettingsStore) Load() (*driven.Settings, error) {
	settings := driven.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	if err == nil {
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidConfig, s.filePath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	s.applyEnv(settings)

	if err := validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save persists the settings to the config file with restricted permissions;
// the file may carry API keys.
func (s *SettingsStore) Save(settings *driven.Settings) error {
	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// applyEnv overlays QUARRY_* environment variables onto the settings.
// Variables are the usual escape hatch for secrets that should not live in
// the config file.
func (s *SettingsStore) applyEnv(settings *driven.Settings) {
	setString := func(key string, dst *string) {
		if v := s.getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := s.getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := s.getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}

	setString("QUARRY_DATA_DIR", &settings.DataDir)

	setInt("QUARRY_CHUNK_MAX_CHARS", &settings.Chunking.MaxChars)
	setInt("QUARRY_CHUNK_OVERLAP", &settings.Chunking.Overlap)

	setString("QUARRY_EMBEDDING_PROVIDER", &settings.Embedding.Provider)
	setString("QUARRY_EMBEDDING_BASE_URL", &settings.Embedding.BaseURL)
	setString("QUARRY_EMBEDDING_MODEL", &settings.Embedding.Model)
	setString("QUARRY_EMBEDDING_API_KEY", &settings.Embedding.APIKey)
	setInt("QUARRY_EMBEDDING_DIMENSIONS", &settings.Embedding.Dimensions)
	setInt("QUARRY_EMBEDDING_BATCH_SIZE", &settings.Embedding.BatchSize)
	setFloat("QUARRY_EMBEDDING_RPS", &settings.Embedding.RequestsPerSecond)

	setString("QUARRY_GENERATION_PROVIDER", &settings.Generation.Provider)
	setString("QUARRY_GENERATION_BASE_URL", &settings.Generation.BaseURL)
	setString("QUARRY_GENERATION_MODEL", &settings.Generation.Model)
	setString("QUARRY_GENERATION_API_KEY", &settings.Generation.APIKey)
	setInt("QUARRY_GENERATION_MAX_TOKENS", &settings.Generation.MaxTokens)
	setFloat("QUARRY_GENERATION_TEMPERATURE", &settings.Generation.Temperature)

	// OPENAI_API_KEY works as a fallback for both backends.
	if key := s.getenv("OPENAI_API_KEY"); key != "" {
		if settings.Embedding.APIKey == "" {
			settings.Embedding.APIKey = key
		}
		if settings.Generation.APIKey == "" {
			settings.Generation.APIKey = key
		}
	}

	setInt("QUARRY_TOP_K", &settings.Query.TopK)
	setFloat("QUARRY_MIN_SCORE", &settings.Query.MinScore)
	setInt("QUARRY_CONTEXT_BUDGET", &settings.Query.ContextBudget)
}

func validate(settings *driven.Settings) error {
	if settings.Chunking.MaxChars <= 0 {
		return fmt.Errorf("%w: chunking.max_chars must be positive", domain.ErrInvalidConfig)
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.MaxChars {
		return fmt.Errorf("%w: chunking.overlap must be in [0, max_chars)", domain.ErrInvalidConfig)
	}
	if err := validateProvider("embedding", settings.Embedding.Provider); err != nil {
		return err
	}
	if err := validateProvider("generation", settings.Generation.Provider); err != nil {
		return err
	}
	if settings.Query.TopK <= 0 {
		return fmt.Errorf("%w: query.top_k must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func validateProvider(section, provider string) error {
	switch provider {
	case "ollama", "openai":
		return nil
	}
	return fmt.Errorf("%w: %s.provider must be \"ollama\" or \"openai\", got %q",
		domain.ErrInvalidConfig, section, provider)
}
