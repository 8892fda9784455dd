package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	stats, err := queryService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	cmd.Printf("Documents:  %d\n", stats.TotalDocuments)
	cmd.Printf("Chunks:     %d\n", stats.TotalChunks)
	cmd.Printf("Dimension:  %d\n", stats.EmbeddingDimension)
	if stats.ModelID != "" {
		cmd.Printf("Model:      %s\n", stats.ModelID)
	}
	return nil
}
