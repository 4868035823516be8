package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/api"
)

var (
	cloudBacktestName string
	cloudBacktestWait bool
)

var cloudBacktestCmd = &cobra.Command{
	Use:   "backtest [project]",
	Short: "Run a backtest of the pushed project on the platform",
	Long: `Starts a backtest of the project's cloud files. Push first if local changes
should be included. With --wait the command polls until the run finishes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadContext()
		if err != nil {
			return err
		}
		client, err := newAPIClient(cfg)
		if err != nil {
			return err
		}
		project, err := loadProjectArg(args)
		if err != nil {
			return err
		}
		if !project.Linked() {
			return fmt.Errorf("project is not linked to the cloud: run 'leanctl cloud push' first")
		}

		ctx := cmd.Context()
		name := cloudBacktestName
		if name == "" {
			name = fmt.Sprintf("%s %s", project.Name(), time.Now().Format("2006-01-02 15:04"))
		}

		run, err := client.StartBacktest(ctx, project.CloudID, name)
		if err != nil {
			return err
		}
		info("Started cloud backtest '%s' (run %s).", name, run.ID)

		if !cloudBacktestWait {
			return nil
		}

		for {
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			run, err = client.GetRunStatus(ctx, run.ID)
			if err != nil {
				return err
			}
			detail("status: %s (%.0f%%)", run.Status, run.Progress*100)
			switch run.Status {
			case api.RunStatusCompleted:
				info("Backtest completed.")
				return nil
			case api.RunStatusError, api.RunStatusStopped:
				return fmt.Errorf("backtest %s: %s", run.Status, run.Error)
			}
		}
	},
}

func init() {
	cloudBacktestCmd.Flags().StringVar(&cloudBacktestName, "name", "", "name of the backtest")
	cloudBacktestCmd.Flags().BoolVar(&cloudBacktestWait, "wait", false, "poll until the backtest finishes")
	cloudCmd.AddCommand(cloudBacktestCmd)
}
