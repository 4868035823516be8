// Package compose builds the fully resolved configuration for a containerized
// run from CLI flags, the Lean configuration, and per-brokerage defaults.
// Everything in this package is pure over its already-loaded inputs; no I/O.
package compose

import (
	"fmt"
	"strings"
)

// ConfigGetter is the read-only view of the Lean configuration used for
// option fallbacks. config.LeanConfig implements it.
type ConfigGetter interface {
	Get(key string) string
}

// MissingRequiredOptionError reports every required option that could not be
// resolved through the precedence chain.
type MissingRequiredOptionError struct {
	Options []string
}

func (e *MissingRequiredOptionError) Error() string {
	return fmt.Sprintf("missing required options: %s (pass --<option> or set the key in lean.json)",
		strings.Join(e.Options, ", "))
}

// Resolver resolves option values with the precedence
// CLI flag > Lean config value > variant default > absent.
type Resolver struct {
	// Flags holds explicitly passed CLI flag values, keyed by option name.
	Flags map[string]string
	// Lean is the loaded Lean configuration, or nil.
	Lean ConfigGetter
	// Defaults holds variant-level defaults. Sensitive options (credentials,
	// account ids) must never appear here.
	Defaults map[string]string
}

// Resolve returns the value for key, or "" when unresolved.
func (r *Resolver) Resolve(key string) string {
	if v, ok := r.Flags[key]; ok && v != "" {
		return v
	}
	if r.Lean != nil {
		if v := r.Lean.Get(key); v != "" {
			return v
		}
	}
	if v, ok := r.Defaults[key]; ok {
		return v
	}
	return ""
}

// Require resolves every key, collecting the values. Missing keys are
// reported together in one MissingRequiredOptionError so the user can fix
// them in a single pass.
func (r *Resolver) Require(keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	var missing []string
	for _, key := range keys {
		v := r.Resolve(key)
		if v == "" {
			missing = append(missing, key)
			continue
		}
		values[key] = v
	}
	if len(missing) > 0 {
		return nil, &MissingRequiredOptionError{Options: missing}
	}
	return values, nil
}
