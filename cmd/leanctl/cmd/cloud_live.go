package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/compose"
)

var cloudLiveCmd = &cobra.Command{
	Use:   "live",
	Short: "Manage live deployments running on the platform",
}

var cloudLiveDeployCmd = &cobra.Command{
	Use:   "deploy [project]",
	Short: "Start live trading of the pushed project on the platform",
	Long: `Starts a cloud live deployment of the project's cloud files. The selected
brokerage's required options must resolve through CLI flags or the Lean
configuration, exactly as for a local deployment.`,
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

		flags := collectOptionFlags(cmd)
		name := flags["brokerage"]
		if name == "" {
			name = project.Brokerage
		}
		if name == "" {
			return fmt.Errorf("no brokerage selected: pass --brokerage or set one in the project config")
		}
		brokerage, err := compose.BrokerageByName(name)
		if err != nil {
			return err
		}

		var lean compose.ConfigGetter
		if cfg.Lean != nil {
			lean = cfg.Lean
		}
		settings, err := brokerage.Settings(&compose.Resolver{Flags: flags, Lean: lean})
		if err != nil {
			return err
		}

		run, err := client.StartLiveDeployment(cmd.Context(), project.CloudID, map[string]any{
			"brokerage":         brokerage.ID(),
			"brokerageSettings": settings,
		})
		if err != nil {
			return err
		}
		info("Started cloud live trading through %s (run %s).", brokerage.Name(), run.ID)
		info("Stop it with 'leanctl cloud live stop' or 'leanctl cloud live liquidate'.")
		return nil
	},
}

var cloudLiveStopCmd = &cobra.Command{
	Use:   "stop [project]",
	Short: "Stop the project's cloud live deployment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cloudLiveAction(cmd, args, false)
	},
}

var cloudLiveLiquidateCmd = &cobra.Command{
	Use:   "liquidate [project]",
	Short: "Liquidate all holdings and stop the cloud live deployment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cloudLiveAction(cmd, args, true)
	},
}

// cloudLiveAction runs the stop or liquidate lifecycle call against the
// project's cloud deployment.
func cloudLiveAction(cmd *cobra.Command, args []string, liquidate bool) error {
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

	if liquidate {
		if err := client.LiquidateLiveDeployment(cmd.Context(), project.CloudID); err != nil {
			return err
		}
		info("Liquidated and stopped the cloud live deployment of '%s'.", project.Name())
		return nil
	}
	if err := client.StopLiveDeployment(cmd.Context(), project.CloudID); err != nil {
		return err
	}
	info("Stopped the cloud live deployment of '%s'.", project.Name())
	return nil
}

var (
	cloudOptimizeName   string
	cloudOptimizeTarget string
)

var cloudOptimizeCmd = &cobra.Command{
	Use:   "optimize [project]",
	Short: "Run a parameter optimization of the pushed project on the platform",
	Long: `Starts a cloud optimization over the parameters declared in the project's
cloud files. Progress is reported through 'leanctl cloud status'.`,
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

		name := cloudOptimizeName
		if name == "" {
			name = project.Name() + " optimization"
		}
		run, err := client.StartOptimization(cmd.Context(), project.CloudID, map[string]any{
			"name":   name,
			"target": cloudOptimizeTarget,
		})
		if err != nil {
			return err
		}
		info("Started cloud optimization '%s' (run %s).", name, run.ID)
		return nil
	},
}

func init() {
	addBrokerageFlags(cloudLiveDeployCmd)
	cloudLiveCmd.AddCommand(cloudLiveDeployCmd)
	cloudLiveCmd.AddCommand(cloudLiveStopCmd)
	cloudLiveCmd.AddCommand(cloudLiveLiquidateCmd)
	cloudCmd.AddCommand(cloudLiveCmd)

	cloudOptimizeCmd.Flags().StringVar(&cloudOptimizeName, "name", "", "name of the optimization")
	cloudOptimizeCmd.Flags().StringVar(&cloudOptimizeTarget, "target", "Sharpe Ratio", "statistic to optimize")
	cloudCmd.AddCommand(cloudOptimizeCmd)
}
