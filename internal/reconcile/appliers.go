package reconcile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leanctl/leanctl/internal/api"
	"github.com/leanctl/leanctl/internal/sandbox"
)

// LocalApplier reads and writes files under a project directory. Writes are
// atomic and confined to the project root.
type LocalApplier struct {
	Root string
}

func (a *LocalApplier) Read(ctx context.Context, path string) ([]byte, error) {
	resolved, err := sandbox.ValidatePath(a.Root, path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(resolved)
}

func (a *LocalApplier) Write(ctx context.Context, path string, content []byte) error {
	return sandbox.SafeWrite(a.Root, filepath.FromSlash(path), content, 0o644)
}

func (a *LocalApplier) Delete(ctx context.Context, path string) error {
	return sandbox.SafeRemove(a.Root, filepath.FromSlash(path))
}

// CloudApplier reads and writes files of one cloud project.
type CloudApplier struct {
	Client    api.ProjectClient
	ProjectID int
}

func (a *CloudApplier) Read(ctx context.Context, path string) ([]byte, error) {
	return a.Client.ReadFile(ctx, a.ProjectID, path)
}

func (a *CloudApplier) Write(ctx context.Context, path string, content []byte) error {
	if err := a.Client.WriteFile(ctx, a.ProjectID, path, content); err != nil {
		return fmt.Errorf("writing cloud file: %w", err)
	}
	return nil
}

func (a *CloudApplier) Delete(ctx context.Context, path string) error {
	if err := a.Client.DeleteFile(ctx, a.ProjectID, path); err != nil {
		return fmt.Errorf("deleting cloud file: %w", err)
	}
	return nil
}
