package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default container images used when the workspace config does not pin one.
const (
	DefaultEngineImage   = "quantconnect/lean:latest"
	DefaultResearchImage = "quantconnect/research:latest"
)

// Workspace represents the per-user workspace configuration file
// (~/.leanctl/config.yaml).
type Workspace struct {
	EngineImage     string `yaml:"engine_image,omitempty"`
	ResearchImage   string `yaml:"research_image,omitempty"`
	DefaultLanguage string `yaml:"default_language,omitempty"`
	DataDirectory   string `yaml:"data_directory,omitempty"`

	path string
}

// LoadWorkspace reads the workspace configuration. A missing file yields a
// Workspace populated with defaults.
func LoadWorkspace(path string) (*Workspace, error) {
	ws := &Workspace{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		ws.applyDefaults()
		return ws, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, ws); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	ws.applyDefaults()
	return ws, nil
}

func (w *Workspace) applyDefaults() {
	if w.EngineImage == "" {
		w.EngineImage = DefaultEngineImage
	}
	if w.ResearchImage == "" {
		w.ResearchImage = DefaultResearchImage
	}
	if w.DefaultLanguage == "" {
		w.DefaultLanguage = "python"
	}
}

// Save writes the workspace configuration back to its file.
func (w *Workspace) Save() error {
	if w.path == "" {
		return fmt.Errorf("workspace config has no backing file")
	}
	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("encoding workspace config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", w.path, err)
	}
	return nil
}
