package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-project configuration file name.
const ProjectConfigName = "config.yaml"

// Project represents the per-project configuration file holding the cloud
// linkage and local run defaults for one algorithm project.
type Project struct {
	CloudID     int               `yaml:"cloud_id,omitempty"`
	Language    string            `yaml:"language,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Parameters  map[string]string `yaml:"parameters,omitempty"`

	// Defaults consumed by the run configuration composer.
	Brokerage    string `yaml:"brokerage,omitempty"`
	DataFeed     string `yaml:"data_feed,omitempty"`
	DataProvider string `yaml:"data_provider,omitempty"`

	dir string
}

// LoadProject reads the configuration of the project rooted at dir. A missing
// file yields an empty Project, so freshly created directories behave as
// unlinked projects.
func LoadProject(dir string) (*Project, error) {
	p := &Project{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, ProjectConfigName))
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading project config: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing project config: %w", err)
	}
	return p, nil
}

// Dir returns the project directory.
func (p *Project) Dir() string {
	return p.dir
}

// Name returns the project's display name, the base of its directory.
func (p *Project) Name() string {
	return filepath.Base(p.dir)
}

// Linked reports whether the project has been pushed to the cloud before.
func (p *Project) Linked() bool {
	return p.CloudID != 0
}

// Save writes the project configuration.
func (p *Project) Save() error {
	if p.dir == "" {
		return fmt.Errorf("project has no directory")
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding project config: %w", err)
	}
	path := filepath.Join(p.dir, ProjectConfigName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
