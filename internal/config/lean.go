package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// LeanConfig wraps the Lean engine configuration file (lean.json). The
// engine's schema is owned by the engine itself; leanctl treats the document
// as an opaque key-value map, reading keys for option fallbacks and writing
// only the handful of keys it manages (image references, environment).
type LeanConfig struct {
	values map[string]any
	path   string
}

// LoadLeanConfig reads a Lean configuration file.
func LoadLeanConfig(path string) (*LeanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &LeanConfig{values: values, path: path}, nil
}

// NewLeanConfig creates an in-memory Lean configuration, used by tests and by
// 'leanctl init' before the first save.
func NewLeanConfig(values map[string]any) *LeanConfig {
	if values == nil {
		values = make(map[string]any)
	}
	return &LeanConfig{values: values}
}

// Get returns the string form of a configuration value, or "" if the key is
// absent or empty. Numeric and boolean values are stringified so the option
// resolver can treat every fallback uniformly.
func (c *LeanConfig) Get(key string) string {
	v, ok := c.values[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// Set stores a value.
func (c *LeanConfig) Set(key string, value any) {
	c.values[key] = value
}

// Delete removes a key.
func (c *LeanConfig) Delete(key string) {
	delete(c.values, key)
}

// Values returns a copy of the underlying document, so callers can merge it
// into a composed configuration without aliasing the loaded map.
func (c *LeanConfig) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Path returns the file the configuration was loaded from, or "".
func (c *LeanConfig) Path() string {
	return c.path
}

// Save writes the configuration back to its file.
func (c *LeanConfig) Save() error {
	if c.path == "" {
		return fmt.Errorf("lean config has no backing file")
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the configuration to the given path.
func (c *LeanConfig) SaveTo(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Encode renders the configuration as indented JSON with a trailing newline.
func (c *LeanConfig) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(c.values, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encoding lean config: %w", err)
	}
	return append(data, '\n'), nil
}
