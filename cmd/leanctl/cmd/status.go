package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusRunID string

var statusCmd = &cobra.Command{
	Use:   "status [project]",
	Short: "Show the status of a cloud run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}

		if statusRunID == "" {
			return fmt.Errorf("pass --run-id to query a run")
		}

		run, err := client.GetRunStatus(cmd.Context(), statusRunID)
		if err != nil {
			return err
		}

		info("Run %s: %s", run.ID, run.Status)
		if run.Progress > 0 {
			info("  progress: %.0f%%", run.Progress*100)
		}
		if run.Error != "" {
			info("  error: %s", run.Error)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run-id", "", "run id returned when the run was started")
	cloudCmd.AddCommand(statusCmd)
}
