package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/compose"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest [project]",
	Short: "Run a backtest in a local engine container",
	Long: `Composes the effective engine configuration from CLI flags, the Lean
configuration, and project defaults, then runs the engine container against
the local data directory. Results are written to the output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, args, compose.Backtest)
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [project]",
	Short: "Run a parameter optimization in a local engine container",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, args, compose.Optimization)
	},
}

var researchCmd = &cobra.Command{
	Use:   "research [project]",
	Short: "Start a research environment for the project",
	Long: `Runs the research container with the project mounted and the notebook
server published on port 8888.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, args, compose.Research)
	},
}

// runEngine is the shared compose-plan-execute path for non-live runs.
func runEngine(cmd *cobra.Command, args []string, mode compose.Mode) error {
	cfg, err := loadContext()
	if err != nil {
		return err
	}
	if _, err := cfg.RequireLeanConfig(); err != nil {
		return err
	}
	project, err := loadProjectArg(args)
	if err != nil {
		return err
	}

	inputs, err := runInputs(cfg, project, cmd, mode)
	if err != nil {
		return err
	}
	rc, err := compose.Compose(inputs)
	if err != nil {
		return err
	}

	orch := newOrchestrator(cfg)
	ctx := cmd.Context()

	plan, err := orch.Prepare(ctx, rc)
	if err != nil {
		return err
	}

	detail("image: %s", plan.Image)
	detail("output: %s", rc.OutputDir)

	result, err := orch.Execute(ctx, plan, os.Stdout)
	if err != nil {
		return err
	}

	if result.Detached {
		if err := registerRun(ctx, project.Dir(), result.Handle.ID, ""); err != nil {
			return err
		}
		info("Container %s is running detached.", result.Handle.Name)
		info("Retrieve logs later with 'leanctl logs %s'.", project.Name())
		return nil
	}
	info("")
	info("%s complete. Results in %s.", mode, rc.OutputDir)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{backtestCmd, optimizeCmd, researchCmd} {
		addRunFlags(c)
		rootCmd.AddCommand(c)
	}
}
