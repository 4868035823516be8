package container

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/leanctl/leanctl/internal/compose"
	"github.com/leanctl/leanctl/internal/config"
)

// Container-side paths the engine expects.
const (
	ProjectMountPath = "/LeanCLI"
	DataMountPath    = "/Lean/Data"
	ResultsMountPath = "/Results"
	ConfigMountPath  = "/Lean/Launcher/bin/Debug/config.json"

	debugPort    = 5678
	researchPort = 8888
)

// Mount maps a host path into the container.
type Mount struct {
	Host      string
	Container string
	Mode      string // "rw" or "ro"
}

// Port binds a host port to a container port.
type Port struct {
	Host      int
	Container int
}

// Plan is the deterministic container execution plan derived from a complete
// RunConfiguration. It is never mutated after creation.
type Plan struct {
	Image   string
	Name    string
	Mounts  []Mount
	Ports   []Port
	Env     map[string]string
	Command []string
	Detach  bool

	// PullBeforeRun forces an image pull before launch; a pull failure then
	// aborts the run with no stale-image fallback.
	PullBeforeRun bool
}

// Planner builds container plans. The Lean configuration is threaded in so
// the effective config file can be composed; the container never sees raw
// CLI flags, only the merged configuration mounted read-only.
type Planner struct {
	Lean    *config.LeanConfig
	DataDir string
}

// Plan derives the execution plan for a run configuration. The merged Lean
// configuration is written into the run's output directory as part of
// planning.
func (p *Planner) Plan(rc *compose.RunConfiguration) (*Plan, error) {
	projectDir, err := filepath.Abs(rc.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("resolving project dir: %w", err)
	}
	outputDir, err := filepath.Abs(rc.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output dir: %w", err)
	}

	configPath, err := p.writeEffectiveConfig(rc, outputDir)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Image: rc.EngineImage,
		Name:  fmt.Sprintf("leanctl-%s", uuid.NewString()[:8]),
		Mounts: []Mount{
			{Host: projectDir, Container: ProjectMountPath, Mode: "rw"},
			{Host: outputDir, Container: ResultsMountPath, Mode: "rw"},
			{Host: p.DataDir, Container: DataMountPath, Mode: "ro"},
			{Host: configPath, Container: ConfigMountPath, Mode: "ro"},
		},
		Env:           copyEnv(rc.Environment),
		Detach:        rc.Detach,
		PullBeforeRun: rc.Update,
	}

	switch rc.DebugMethod {
	case "ptvsd", "debugpy":
		plan.Ports = append(plan.Ports, Port{Host: debugPort, Container: debugPort})
	}
	if rc.Mode == compose.Research {
		plan.Ports = append(plan.Ports, Port{Host: researchPort, Container: researchPort})
	}

	return plan, nil
}

// writeEffectiveConfig merges the base Lean configuration with the run's
// overrides and writes the result into the run's output directory. Live
// overrides carry brokerage credentials, so the file is owner-only.
func (p *Planner) writeEffectiveConfig(rc *compose.RunConfiguration, outputDir string) (string, error) {
	values := make(map[string]any)
	if p.Lean != nil {
		values = p.Lean.Values()
	}
	for k, v := range rc.LeanOverrides {
		values[k] = v
	}
	values["data-folder"] = DataMountPath
	values["results-destination-folder"] = ResultsMountPath
	values["algorithm-language"] = rc.Language

	data, err := config.NewLeanConfig(values).Encode()
	if err != nil {
		return "", err
	}
	path := filepath.Join(outputDir, "config.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing effective config: %w", err)
	}
	return path, nil
}

func copyEnv(env map[string]string) map[string]string {
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
