package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a workspace in the current directory",
	Long: `Creates a lean.json configuration file and a data directory in the current
directory. Projects created inside this directory share the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		leanPath := filepath.Join(cwd, "lean.json")
		if _, err := os.Stat(leanPath); err == nil {
			return fmt.Errorf("lean.json already exists in %s", cwd)
		}

		lc := config.NewLeanConfig(map[string]any{
			"data-folder":        "data",
			"algorithm-language": "Python",
			"messaging-handler":  "QuantConnect.Messaging.Messaging",
			"job-queue-handler":  "QuantConnect.Queues.JobQueue",
			"api-handler":        "QuantConnect.Api.Api",
			"environment":        "backtesting",
		})
		if err := lc.SaveTo(leanPath); err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Join(cwd, "data"), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		info("Workspace initialized.")
		info("  config: %s", leanPath)
		info("  data:   %s", filepath.Join(cwd, "data"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
