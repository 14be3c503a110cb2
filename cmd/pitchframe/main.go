// Command pitchframe scores pitch content from the command line and hosts the
// API server and migrations behind one binary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pitchframe",
		Short:         "Pitch content scoring and feedback",
		Long:          "pitchframe scores startup pitch content across six categories and produces actionable feedback and HTML or text reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newRenderCmd(), newServeCmd(), newMigrateCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
