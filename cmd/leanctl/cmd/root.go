package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	leanConfigFlag string
	verbose        bool
	quiet          bool
)

var rootCmd = &cobra.Command{
	Use:   "leanctl",
	Short: "Develop and run trading algorithms locally and in the cloud",
	Long: `leanctl lets you develop trading algorithms locally, keep them synchronized
with the cloud platform, and run them in managed engine containers for
backtesting, optimization, live trading, and research.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("leanctl %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&leanConfigFlag, "lean-config", "", "path to the Lean configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. The context reaches every RunE through
// cmd.Context(), so cancelling it interrupts runs in progress.
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}
