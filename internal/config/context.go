package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Context bundles everything a single CLI invocation needs: the workspace
// configuration, the Lean engine configuration, and the stored credentials.
// It is loaded once per command and passed explicitly into every component.
type Context struct {
	Workspace   *Workspace
	Lean        *LeanConfig
	Credentials *Credentials

	// LeanConfigPath is the path the Lean configuration was loaded from.
	LeanConfigPath string
}

// ContextOptions configures context loading.
type ContextOptions struct {
	// LeanConfigPath overrides lean.json discovery. Empty means discover
	// upwards from the working directory.
	LeanConfigPath string

	// ConfigDir overrides the workspace configuration directory.
	// Empty means ~/.leanctl.
	ConfigDir string
}

// LoadContext reads the workspace configuration, credentials, and the Lean
// configuration file. A missing Lean config is not an error here; commands
// that require one call RequireLeanConfig.
func LoadContext(opts ContextOptions) (*Context, error) {
	dir := opts.ConfigDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	ws, err := LoadWorkspace(filepath.Join(dir, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading workspace config: %w", err)
	}

	creds, err := LoadCredentials(filepath.Join(dir, "credentials.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	ctx := &Context{Workspace: ws, Credentials: creds}

	leanPath := opts.LeanConfigPath
	if leanPath == "" {
		leanPath = discoverLeanConfig()
	}
	if leanPath != "" {
		lc, err := LoadLeanConfig(leanPath)
		if err != nil {
			return nil, fmt.Errorf("loading Lean config %s: %w", leanPath, err)
		}
		ctx.Lean = lc
		ctx.LeanConfigPath = leanPath
	}

	return ctx, nil
}

// RequireLeanConfig returns the loaded Lean configuration or an error telling
// the user how to create one.
func (c *Context) RequireLeanConfig() (*LeanConfig, error) {
	if c.Lean == nil {
		return nil, fmt.Errorf("no lean.json found: run 'leanctl init' or pass --lean-config")
	}
	return c.Lean, nil
}

// DataDir resolves the local data directory, preferring the workspace
// configuration and falling back to a 'data' directory next to lean.json.
func (c *Context) DataDir() string {
	if c.Workspace != nil && c.Workspace.DataDirectory != "" {
		return c.Workspace.DataDirectory
	}
	if c.LeanConfigPath != "" {
		return filepath.Join(filepath.Dir(c.LeanConfigPath), "data")
	}
	return "data"
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".leanctl"
	}
	return filepath.Join(home, ".leanctl")
}

// discoverLeanConfig walks upwards from the working directory looking for a
// lean.json file, mirroring how projects are nested under the workspace root.
func discoverLeanConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, "lean.json")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
