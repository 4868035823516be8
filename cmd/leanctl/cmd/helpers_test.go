package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/leanctl/leanctl/internal/compose"
	"github.com/leanctl/leanctl/internal/config"
	"github.com/leanctl/leanctl/internal/snapshot"
)

func TestCollectOptionFlagsOnlyChanged(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	c.Flags().String("brokerage", "", "")
	c.Flags().String("ib-account", "", "")
	if err := c.Flags().Set("brokerage", "Paper Trading"); err != nil {
		t.Fatal(err)
	}

	flags := collectOptionFlags(c)
	if flags["brokerage"] != "Paper Trading" {
		t.Errorf("brokerage = %q", flags["brokerage"])
	}
	if _, ok := flags["ib-account"]; ok {
		t.Error("unchanged flag must not participate in option resolution")
	}
}

func TestAddBrokerageFlagsCoversRequiredOptions(t *testing.T) {
	c := &cobra.Command{Use: "test"}
	addBrokerageFlags(c)

	for _, b := range compose.Brokerages() {
		for _, opt := range b.RequiredOptions() {
			if c.Flags().Lookup(opt) == nil {
				t.Errorf("no flag registered for %s option %s", b.Name(), opt)
			}
		}
	}
	if c.Flags().Lookup("brokerage") == nil {
		t.Error("no --brokerage flag")
	}
}

func TestRunInputsImagePrecedence(t *testing.T) {
	cfg := &config.Context{
		Workspace: &config.Workspace{
			EngineImage:     "workspace-engine:1",
			ResearchImage:   "workspace-research:1",
			DefaultLanguage: "python",
		},
		Lean: config.NewLeanConfig(map[string]any{"engine-image": "lean-engine:1"}),
	}
	project, err := config.LoadProject(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	newCmd := func() *cobra.Command {
		c := &cobra.Command{Use: "test"}
		addRunFlags(c)
		if err := c.Flags().Set("output", t.TempDir()); err != nil {
			t.Fatal(err)
		}
		return c
	}

	// Explicit --image wins over everything.
	c := newCmd()
	if err := c.Flags().Set("image", "explicit:1"); err != nil {
		t.Fatal(err)
	}
	in, err := runInputs(cfg, project, c, compose.Research)
	if err != nil {
		t.Fatalf("runInputs: %v", err)
	}
	if in.EngineImage != "explicit:1" {
		t.Errorf("image = %q, want the explicit flag", in.EngineImage)
	}

	// Research mode prefers the research image over the Lean config.
	in, err = runInputs(cfg, project, newCmd(), compose.Research)
	if err != nil {
		t.Fatalf("runInputs: %v", err)
	}
	if in.EngineImage != "workspace-research:1" {
		t.Errorf("image = %q, want the research image", in.EngineImage)
	}

	// Other modes use the Lean config's pinned engine image.
	in, err = runInputs(cfg, project, newCmd(), compose.Backtest)
	if err != nil {
		t.Fatalf("runInputs: %v", err)
	}
	if in.EngineImage != "lean-engine:1" {
		t.Errorf("image = %q, want the Lean config image", in.EngineImage)
	}

	// Without a Lean config the workspace default applies.
	cfg.Lean = nil
	in, err = runInputs(cfg, project, newCmd(), compose.Backtest)
	if err != nil {
		t.Fatalf("runInputs: %v", err)
	}
	if in.EngineImage != "workspace-engine:1" {
		t.Errorf("image = %q, want the workspace default", in.EngineImage)
	}
	if in.Lean != nil {
		t.Error("nil Lean config must not become a typed-nil getter")
	}
}

func TestRunInputsLanguageFallback(t *testing.T) {
	cfg := &config.Context{
		Workspace: &config.Workspace{EngineImage: "e:1", DefaultLanguage: "csharp"},
	}
	project, err := config.LoadProject(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	c := &cobra.Command{Use: "test"}
	addRunFlags(c)
	if err := c.Flags().Set("output", t.TempDir()); err != nil {
		t.Fatal(err)
	}

	in, err := runInputs(cfg, project, c, compose.Backtest)
	if err != nil {
		t.Fatalf("runInputs: %v", err)
	}
	if in.Language != "csharp" {
		t.Errorf("language = %q, want the workspace default", in.Language)
	}
}

func TestOutputDirNeverSynchronized(t *testing.T) {
	project, err := config.LoadProject(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project.Dir(), "main.py"), []byte("# algo"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, mode := range []compose.Mode{
		compose.Backtest, compose.Optimization, compose.LiveTrading, compose.Research,
	} {
		dir, err := outputDir(project, mode)
		if err != nil {
			t.Fatalf("outputDir(%s): %v", mode, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "log.txt"), []byte("output"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	snap, err := snapshot.Local(project.Dir())
	if err != nil {
		t.Fatalf("Local: %v", err)
	}
	if len(snap.Files) != 1 {
		t.Fatalf("snapshot has %d files, want only main.py", len(snap.Files))
	}
	for path := range snap.Files {
		if path != "main.py" {
			t.Errorf("run output %q would be pushed to the cloud", path)
		}
	}
}
