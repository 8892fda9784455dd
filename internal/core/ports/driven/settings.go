package driven

// Settings is the tool configuration. It is persisted as TOML and may be
// overridden by QUARRY_* environment variables; see the file store for the
// override rules.
type Settings struct {
	// DataDir is where the SQLite database lives. Empty means the default
	// under the user's home directory.
	DataDir string `toml:"data_dir"`

	Chunking   ChunkingSettings   `toml:"chunking"`
	Embedding  BackendSettings    `toml:"embedding"`
	Generation GenerationSettings `toml:"generation"`
	Query      QuerySettings      `toml:"query"`
}

// ChunkingSettings controls how converted text is split.
type ChunkingSettings struct {
	MaxChars int `toml:"max_chars"`
	Overlap  int `toml:"overlap"`
}

// BackendSettings selects and configures the embedding backend.
type BackendSettings struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`

	// BatchSize bounds texts per embedding request.
	BatchSize int `toml:"batch_size"`

	// RequestsPerSecond throttles backend calls. Zero disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// MaxAttempts bounds retries per backend call.
	MaxAttempts int `toml:"max_attempts"`
}

// GenerationSettings selects and configures the generation backend.
type GenerationSettings struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// QuerySettings controls retrieval and prompt assembly.
type QuerySettings struct {
	TopK          int     `toml:"top_k"`
	MinScore      float64 `toml:"min_score"`
	ContextBudget int     `toml:"context_budget"`
}

// SettingsStore loads and persists tool configuration.
type SettingsStore interface {
	// Load returns the effective settings: defaults, overlaid by the
	// config file, overlaid by environment variables. The result is
	// validated; broken configuration fails with domain.ErrInvalidConfig.
	Load() (*Settings, error)

	// Save persists the settings to the config file.
	Save(*Settings) error

	// Path returns the config file path.
	Path() string
}

// DefaultSettings returns the configuration used when nothing is set.
func DefaultSettings() *Settings {
	return &Settings{
		Chunking: ChunkingSettings{
			MaxChars: 1000,
			Overlap:  200,
		},
		Embedding: BackendSettings{
			Provider:    "ollama",
			BatchSize:   32,
			MaxAttempts: 3,
		},
		Generation: GenerationSettings{
			Provider:  "ollama",
			MaxTokens: 1024,
		},
		Query: QuerySettings{
			TopK:          3,
			ContextBudget: 8000,
		},
	}
}
