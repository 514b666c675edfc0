package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keepsake",
	Short: "Decision memory with contextual recall",
	Long:  "Keepsake remembers the decisions you make, why you made them, and answers questions grounded in that history.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
