package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Credentials is the stored platform login (~/.leanctl/credentials.yaml).
// The schema is a flat key-value document keyed by account.
type Credentials struct {
	UserID   string `yaml:"user_id,omitempty"`
	APIToken string `yaml:"api_token,omitempty"`

	path string
}

// LoadCredentials reads stored credentials. A missing file yields an empty,
// logged-out Credentials.
func LoadCredentials(path string) (*Credentials, error) {
	c := &Credentials{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// LoggedIn reports whether both credential fields are present.
func (c *Credentials) LoggedIn() bool {
	return c.UserID != "" && c.APIToken != ""
}

// Save writes the credentials with owner-only permissions.
func (c *Credentials) Save() error {
	if c.path == "" {
		return fmt.Errorf("credentials have no backing file")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", c.path, err)
	}
	return nil
}

// Clear removes the stored credentials file.
func (c *Credentials) Clear() error {
	c.UserID = ""
	c.APIToken = ""
	if c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", c.path, err)
	}
	return nil
}
