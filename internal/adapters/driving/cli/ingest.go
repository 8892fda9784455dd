package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]...",
	Short: "Ingest documents into the index",
	Long: `Converts each file to text, chunks it, embeds the chunks and adds
them to the vector index. Supported formats: pdf, docx, doc, txt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx := context.Background()
	failures := 0
	for _, path := range args {
		if err := ingestFile(ctx, cmd, path); err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d files failed", failures, len(args))
	}
	return nil
}

func ingestFile(ctx context.Context, cmd *cobra.Command, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := ingestService.Ingest(ctx, domain.RawFile{
		Filename: filepath.Base(path),
		Content:  content,
	})
	if err != nil {
		return err
	}

	cmd.Printf("  %s -> %s (%s)\n", path, doc.ID, doc.Status)
	return nil
}
