// Package cli implements the habitloop command-line interface using Cobra.
// Commands open the local store directly; `serve` runs the daemon.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "habitloop",
	Short: "habitloop: build habits that stick",
	Long: `habitloop is a local-first habit engagement engine.
Check in daily to grow your streak, get nudged when your routine slips,
collect rewards and work through challenge tiers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
