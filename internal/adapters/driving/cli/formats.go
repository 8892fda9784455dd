package cli

import (
	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported document formats",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("Supported formats:")
		for _, ext := range ensureRegistry().SupportedExtensions() {
			cmd.Printf("  %s\n", ext)
		}
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
