// Package sandbox confines file writes to a project directory. Pulled cloud
// file paths are platform-controlled input, so every write and delete is
// validated against the project root after symlink resolution.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath resolves relPath against the project root and verifies the
// result stays inside it, following symlinks. Returns the resolved absolute
// path.
func ValidatePath(projectRoot, relPath string) (string, error) {
	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolving project root symlinks: %w", err)
	}

	candidate := filepath.Clean(filepath.Join(realRoot, relPath))

	// The target may not exist yet, so symlinks are resolved for the longest
	// existing prefix only.
	resolved, err := resolvePrefix(candidate)
	if err != nil {
		return "", fmt.Errorf("resolving target path: %w", err)
	}

	// Trailing separator so "project2" is not mistaken for a child of
	// "project".
	if resolved != realRoot && !strings.HasPrefix(resolved, realRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q resolves to %q which is outside the project root %q", relPath, resolved, realRoot)
	}
	return resolved, nil
}

// resolvePrefix resolves symlinks in the longest existing prefix of path and
// joins the remainder back on.
func resolvePrefix(path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved, nil
	}

	dir := filepath.Dir(path)
	if dir == path {
		return path, nil
	}
	resolvedDir, err := resolvePrefix(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, filepath.Base(path)), nil
}

// SafeWrite atomically writes content to a path inside the project root. The
// file appears complete or not at all, so an interrupted pull never leaves a
// half-written algorithm file.
func SafeWrite(projectRoot, relPath string, content []byte, perm os.FileMode) error {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	// Temp file in the target directory keeps the rename on one filesystem.
	tmp, err := os.CreateTemp(dir, ".leanctl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, resolved); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", resolved, err)
	}
	renamed = true
	return nil
}

// SafeRemove removes a file inside the project root.
func SafeRemove(projectRoot, relPath string) error {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return err
	}
	return os.Remove(resolved)
}

// SafeMkdirAll creates a directory tree inside the project root.
func SafeMkdirAll(projectRoot, relPath string, perm os.FileMode) error {
	resolved, err := ValidatePath(projectRoot, relPath)
	if err != nil {
		return err
	}
	return os.MkdirAll(resolved, perm)
}
