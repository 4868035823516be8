// Package snapshot computes content-addressed views of a project's files,
// either from the local filesystem or from the cloud platform. Snapshots are
// built fresh on every sync invocation and never persisted.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/leanctl/leanctl/internal/api"
	"github.com/leanctl/leanctl/internal/compose"
	"github.com/leanctl/leanctl/internal/config"
)

// FileRecord captures one file at snapshot time. Immutable once captured.
type FileRecord struct {
	Path       string
	Hash       string // hex sha256 of the raw bytes
	Size       int64
	ModifiedAt time.Time
}

// Snapshot is a content-addressed view of a project's files. Root identifies
// the side it was taken from (a local path or a cloud project id).
type Snapshot struct {
	Root  string
	Files map[string]FileRecord
}

// ignoredDirs are never synchronized: VCS and editor state, build artifacts,
// and run output directories. The set is fixed, not user-extensible.
var ignoredDirs = map[string]bool{
	".git":               true,
	".idea":              true,
	".vscode":            true,
	".vs":                true,
	"__pycache__":        true,
	".ipynb_checkpoints": true,
	"bin":                true,
	"obj":                true,
}

func init() {
	// The run output folders come from the mode definitions, so new modes
	// stay excluded from synchronization automatically.
	for _, dir := range compose.OutputFolders() {
		ignoredDirs[dir] = true
	}
}

// ignoredFiles are local bookkeeping, never pushed to the cloud.
var ignoredFiles = map[string]bool{
	config.ProjectConfigName: true,
	".DS_Store":              true,
}

// Local snapshots the project directory at root.
func Local(root string) (*Snapshot, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	snap := &Snapshot{Root: root, Files: make(map[string]FileRecord)}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && ignoredDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ignoredFiles[d.Name()] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}

		norm := Normalize(rel)
		snap.Files[norm] = FileRecord{
			Path:       norm,
			Hash:       HashBytes(content),
			Size:       int64(len(content)),
			ModifiedAt: fi.ModTime(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("snapshotting %s: %w", root, err)
	}
	return snap, nil
}

// Remote snapshots a cloud project by listing its files. The platform returns
// file contents with the listing, so one call covers hashing too.
func Remote(ctx context.Context, client api.ProjectClient, projectID int) (*Snapshot, error) {
	if _, err := client.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	files, err := client.ListFiles(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing cloud files: %w", err)
	}

	snap := &Snapshot{Root: fmt.Sprintf("cloud:%d", projectID), Files: make(map[string]FileRecord)}
	for _, f := range files {
		norm := Normalize(f.Name)
		content := []byte(f.Content)
		rec := FileRecord{
			Path: norm,
			Hash: HashBytes(content),
			Size: int64(len(content)),
		}
		if f.Modified != "" {
			if t, err := time.Parse("2006-01-02 15:04:05", f.Modified); err == nil {
				rec.ModifiedAt = t
			}
		}
		snap.Files[norm] = rec
	}
	return snap, nil
}

// Paths returns the snapshot's file paths in sorted order.
func (s *Snapshot) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// TotalSize returns the sum of all file sizes.
func (s *Snapshot) TotalSize() int64 {
	var total int64
	for _, f := range s.Files {
		total += f.Size
	}
	return total
}

// Normalize converts a path to the canonical snapshot form: forward slashes,
// no leading "./".
func Normalize(path string) string {
	p := filepath.ToSlash(path)
	p = strings.TrimPrefix(p, "./")
	return p
}

// HashBytes returns the hex sha256 digest of content. Hashing is content
// based, not mtime based, so change detection stays correct under clock skew
// between the local and cloud sides.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
