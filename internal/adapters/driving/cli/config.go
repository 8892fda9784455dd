package cli

import (
	"github.com/spf13/cobra"

	configfile "github.com/quarry-labs/quarry-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Prints the effective configuration: defaults, overlaid by the
config file, overlaid by QUARRY_* environment variables.`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := configfile.NewSettingsStore(configDir)
		if err != nil {
			return err
		}
		cmd.Println(store.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := configfile.NewSettingsStore(configDir)
	if err != nil {
		return err
	}
	cfg, err := store.Load()
	if err != nil {
		return err
	}

	cmd.Printf("Config file: %s\n\n", store.Path())
	cmd.Printf("  data_dir:              %s\n", orDefault(cfg.DataDir, "~/.quarry/data"))
	cmd.Printf("  chunking.max_chars:    %d\n", cfg.Chunking.MaxChars)
	cmd.Printf("  chunking.overlap:      %d\n", cfg.Chunking.Overlap)
	cmd.Printf("  embedding.provider:    %s\n", cfg.Embedding.Provider)
	cmd.Printf("  embedding.model:       %s\n", orDefault(cfg.Embedding.Model, "(provider default)"))
	cmd.Printf("  embedding.api_key:     %s\n", redact(cfg.Embedding.APIKey))
	cmd.Printf("  generation.provider:   %s\n", cfg.Generation.Provider)
	cmd.Printf("  generation.model:      %s\n", orDefault(cfg.Generation.Model, "(provider default)"))
	cmd.Printf("  generation.api_key:    %s\n", redact(cfg.Generation.APIKey))
	cmd.Printf("  query.top_k:           %d\n", cfg.Query.TopK)
	cmd.Printf("  query.min_score:       %.2f\n", cfg.Query.MinScore)
	cmd.Printf("  query.context_budget:  %d\n", cfg.Query.ContextBudget)
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func redact(key string) string {
	if key == "" {
		return "(not set)"
	}
	return "****"
}
