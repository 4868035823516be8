package container

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/leanctl/leanctl/internal/compose"
	"github.com/leanctl/leanctl/internal/config"
)

func testRunConfiguration(t *testing.T) *compose.RunConfiguration {
	t.Helper()
	return &compose.RunConfiguration{
		Mode:        compose.Backtest,
		EngineImage: "quantconnect/lean:latest",
		ProjectDir:  t.TempDir(),
		Language:    "python",
		OutputDir:   t.TempDir(),
		LeanOverrides: map[string]any{
			"environment": "backtesting",
		},
	}
}

func TestPlanMounts(t *testing.T) {
	p := &Planner{DataDir: "/data"}
	plan, err := p.Plan(testRunConfiguration(t))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	byContainer := make(map[string]Mount)
	for _, m := range plan.Mounts {
		byContainer[m.Container] = m
	}

	if m := byContainer[ProjectMountPath]; m.Mode != "rw" {
		t.Errorf("project mount %+v, want rw", m)
	}
	if m := byContainer[DataMountPath]; m.Host != "/data" || m.Mode != "ro" {
		t.Errorf("data mount %+v, want /data ro", m)
	}
	if m := byContainer[ConfigMountPath]; m.Mode != "ro" {
		t.Errorf("config mount %+v, want ro", m)
	}
	if _, ok := byContainer[ResultsMountPath]; !ok {
		t.Error("results mount missing")
	}
}

func TestPlanWritesEffectiveConfig(t *testing.T) {
	lean := config.NewLeanConfig(map[string]any{
		"job-user-id": "12345",
		"environment": "stale",
		"data-folder": "/host/data",
	})
	p := &Planner{Lean: lean, DataDir: "/data"}

	rc := testRunConfiguration(t)
	plan, err := p.Plan(rc)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var configMount Mount
	for _, m := range plan.Mounts {
		if m.Container == ConfigMountPath {
			configMount = m
		}
	}

	raw, err := os.ReadFile(configMount.Host)
	if err != nil {
		t.Fatalf("reading effective config: %v", err)
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		t.Fatalf("parsing effective config: %v", err)
	}

	// Base values survive, overrides win, and container paths replace host
	// paths.
	if values["job-user-id"] != "12345" {
		t.Errorf("job-user-id = %v", values["job-user-id"])
	}
	if values["environment"] != "backtesting" {
		t.Errorf("environment = %v, want the override", values["environment"])
	}
	if values["data-folder"] != DataMountPath {
		t.Errorf("data-folder = %v, want %s", values["data-folder"], DataMountPath)
	}
	if values["algorithm-language"] != "python" {
		t.Errorf("algorithm-language = %v", values["algorithm-language"])
	}
}

func TestPlanConfigStaysInOutputDir(t *testing.T) {
	p := &Planner{DataDir: "/data"}

	rc := testRunConfiguration(t)
	rc.LeanOverrides["ib-password"] = "hunter2"
	plan, err := p.Plan(rc)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var configMount Mount
	for _, m := range plan.Mounts {
		if m.Container == ConfigMountPath {
			configMount = m
		}
	}
	if filepath.Dir(configMount.Host) != rc.OutputDir {
		t.Errorf("config written to %s, want the run's output directory", configMount.Host)
	}

	// Credentials end up in this file, so nobody else may read it.
	info, err := os.Stat(configMount.Host)
	if err != nil {
		t.Fatalf("stat effective config: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Errorf("config mode = %o, want owner-only", info.Mode().Perm())
	}

	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "leanctl-config-") {
			t.Errorf("config leaked into the shared temp dir: %s", e.Name())
		}
	}
}

func TestPlanNamesAreUnique(t *testing.T) {
	p := &Planner{DataDir: "/data"}

	first, err := p.Plan(testRunConfiguration(t))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	second, err := p.Plan(testRunConfiguration(t))
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	if first.Name == second.Name {
		t.Errorf("both plans named %s", first.Name)
	}
	for _, plan := range []*Plan{first, second} {
		if !strings.HasPrefix(plan.Name, "leanctl-") {
			t.Errorf("name %s missing prefix", plan.Name)
		}
	}
}

func TestPlanDebugAndResearchPorts(t *testing.T) {
	p := &Planner{DataDir: "/data"}

	rc := testRunConfiguration(t)
	plan, err := p.Plan(rc)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Ports) != 0 {
		t.Errorf("ports = %v, want none for a plain backtest", plan.Ports)
	}

	rc = testRunConfiguration(t)
	rc.DebugMethod = "debugpy"
	plan, err = p.Plan(rc)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Ports) != 1 || plan.Ports[0].Container != 5678 {
		t.Errorf("ports = %v, want the debugger port", plan.Ports)
	}

	rc = testRunConfiguration(t)
	rc.Mode = compose.Research
	plan, err = p.Plan(rc)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Ports) != 1 || plan.Ports[0].Container != 8888 {
		t.Errorf("ports = %v, want the notebook port", plan.Ports)
	}
}

func TestPlanUpdateForcesPull(t *testing.T) {
	p := &Planner{DataDir: "/data"}

	rc := testRunConfiguration(t)
	rc.Update = true
	plan, err := p.Plan(rc)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !plan.PullBeforeRun {
		t.Error("update run must force a pull")
	}
}
