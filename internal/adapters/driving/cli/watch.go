package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quarry-labs/quarry-cli/internal/adapters/driving/watch"
	"github.com/quarry-labs/quarry-cli/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and ingest dropped files",
	Long: `Watches a directory and ingests every supported file written into
it. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(args[0], ingestService, ensureRegistry().SupportedExtensions())
	w.OnResult = func(path string, doc *domain.Document, err error) {
		if err != nil {
			cmd.PrintErrf("  %s: %v\n", path, err)
			return
		}
		cmd.Printf("  %s -> %s (%s)\n", path, doc.ID, doc.Status)
	}

	cmd.Printf("Watching %s (ctrl-c to stop)\n", args[0])
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
