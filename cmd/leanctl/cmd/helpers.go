package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leanctl/leanctl/internal/api"
	"github.com/leanctl/leanctl/internal/compose"
	"github.com/leanctl/leanctl/internal/config"
	"github.com/leanctl/leanctl/internal/container"
	"github.com/leanctl/leanctl/internal/live"
)

// loadContext loads the per-invocation configuration context.
func loadContext() (*config.Context, error) {
	return config.LoadContext(config.ContextOptions{LeanConfigPath: leanConfigFlag})
}

// newAPIClient builds an authenticated platform client, failing when the
// user is not logged in.
func newAPIClient(cfg *config.Context) (*api.Client, error) {
	if !cfg.Credentials.LoggedIn() {
		return nil, fmt.Errorf("not logged in: run 'leanctl login' first")
	}
	return api.NewClient(cfg.Credentials.UserID, cfg.Credentials.APIToken), nil
}

// loadProjectArg resolves the project directory argument (default ".") into
// a loaded project config.
func loadProjectArg(args []string) (*config.Project, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving project path: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project directory %s does not exist", dir)
	}
	return config.LoadProject(abs)
}

// outputDir returns (and creates) the output directory for a run, a
// timestamped directory under the project's mode-specific folder.
func outputDir(project *config.Project, mode compose.Mode) (string, error) {
	dir := filepath.Join(project.Dir(), mode.OutputFolder(), time.Now().Format("2006-01-02_15-04-05"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// newOrchestrator wires the docker runtime and planner for a run.
func newOrchestrator(cfg *config.Context) *container.Orchestrator {
	return &container.Orchestrator{
		Runtime: container.NewDockerRuntime(),
		Planner: &container.Planner{Lean: cfg.Lean, DataDir: cfg.DataDir()},
	}
}

// openSessionStore opens the live session registry.
func openSessionStore(ctx context.Context) (*live.Store, error) {
	return live.OpenStore(ctx, filepath.Join(config.DefaultConfigDir(), "sessions.db"))
}

// collectOptionFlags gathers every explicitly passed flag into an option map
// for the composer. Only changed flags participate, so stored configuration
// keeps its place in the precedence chain.
func collectOptionFlags(cmd *cobra.Command) map[string]string {
	flags := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		flags[f.Name] = f.Value.String()
	})
	return flags
}

// addRunFlags registers the flags shared by every containerized run command.
func addRunFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("image", "", "engine image to run (overrides the stored image)")
	fs.Bool("update", false, "pull the engine image before running")
	fs.Bool("detach", false, "run the container detached and return immediately")
	fs.String("debug", "", "debug method (ptvsd, debugpy, vsdbg, rider)")
	fs.String("output", "", "output directory (defaults to a timestamped directory)")
	fs.String("data-feed", "", "live data feed (defaults to the brokerage's feed)")
	fs.String("data-provider", "", "data provider (Local or QuantConnect)")
	fs.String("data-purchase-limit", "", "maximum QCC spend for QuantConnect data ('unlimited' allowed)")
}

// addBrokerageFlags registers --brokerage and one flag per brokerage option.
func addBrokerageFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("brokerage", "", "the brokerage to trade through")
	seen := make(map[string]bool)
	for _, b := range compose.Brokerages() {
		for _, opt := range b.RequiredOptions() {
			if seen[opt] {
				continue
			}
			seen[opt] = true
			fs.String(opt, "", fmt.Sprintf("%s setting for %s", opt, b.Name()))
		}
	}
	for _, opt := range []string{"tradier-environment", "oanda-environment", "fxcm-environment"} {
		fs.String(opt, "", "environment (paper or live)")
	}
}

// runInputs assembles composer inputs from the loaded context and flags.
func runInputs(cfg *config.Context, project *config.Project, cmd *cobra.Command, mode compose.Mode) (compose.Inputs, error) {
	flags := collectOptionFlags(cmd)

	image := flags["image"]
	if image == "" && mode == compose.Research {
		image = cfg.Workspace.ResearchImage
	}
	if image == "" && cfg.Lean != nil {
		image = cfg.Lean.Get("engine-image")
	}
	if image == "" {
		image = cfg.Workspace.EngineImage
	}

	language := project.Language
	if language == "" {
		language = cfg.Workspace.DefaultLanguage
	}

	out := flags["output"]
	if out == "" {
		var err error
		out, err = outputDir(project, mode)
		if err != nil {
			return compose.Inputs{}, err
		}
	}

	detach, _ := cmd.Flags().GetBool("detach")
	update, _ := cmd.Flags().GetBool("update")

	var lean compose.ConfigGetter
	if cfg.Lean != nil {
		lean = cfg.Lean
	}

	return compose.Inputs{
		Mode:                mode,
		ProjectDir:          project.Dir(),
		Language:            language,
		EngineImage:         image,
		LeanConfigPath:      cfg.LeanConfigPath,
		OutputDir:           out,
		Flags:               flags,
		Lean:                lean,
		BrokerageDefault:    project.Brokerage,
		DataFeedDefault:     project.DataFeed,
		DataProviderDefault: project.DataProvider,
		Detach:              detach,
		Update:              update,
		DebugMethod:         flags["debug"],
	}, nil
}

// info prints a line unless quiet mode is active.
func info(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// detail prints a line only in verbose mode.
func detail(format string, args ...any) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

// errorf prints an error message to stderr.
func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
