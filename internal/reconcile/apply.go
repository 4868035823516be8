package reconcile

import (
	"context"
	"fmt"
	"sync"
)

// defaultWorkers bounds concurrent file operations against the remote API.
const defaultWorkers = 4

// Applier executes single file operations on one side. Implementations exist
// for the local filesystem and for the cloud platform.
type Applier interface {
	// Read returns the content of path on the source side.
	Read(ctx context.Context, path string) ([]byte, error)
	// Write stores content at path on the destination side.
	Write(ctx context.Context, path string, content []byte) error
	// Delete removes path on the destination side.
	Delete(ctx context.Context, path string) error
}

// Action records the outcome of one applied operation, for CLI printing.
type Action struct {
	Op  Operation
	Err error
}

// Result holds the outcome of applying a plan.
type Result struct {
	Applied []Action
	Failed  *Action
}

// Apply executes the plan's operations: contents are read from source and
// written (or deleted) on dest. Independent paths are dispatched to a bounded
// worker pool; a plan never contains two operations for the same path, so no
// per-path ordering is needed. The first error cancels remaining dispatch and
// is returned; there is no rollback of already-applied operations.
func Apply(ctx context.Context, plan *Plan, source, dest Applier, workers int) (*Result, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = &Result{}
	)
	sem := make(chan struct{}, workers)

	for _, op := range plan.Ops {
		if ctx.Err() != nil {
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(op Operation) {
			defer wg.Done()
			defer func() { <-sem }()

			err := applyOne(ctx, op, source, dest)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if result.Failed == nil {
					result.Failed = &Action{Op: op, Err: err}
					cancel()
				}
				return
			}
			result.Applied = append(result.Applied, Action{Op: op})
		}(op)
	}

	wg.Wait()

	if result.Failed != nil {
		return result, fmt.Errorf("%s %s: %w", result.Failed.Op.Kind, result.Failed.Op.Path, result.Failed.Err)
	}
	return result, nil
}

func applyOne(ctx context.Context, op Operation, source, dest Applier) error {
	switch op.Kind {
	case Create, Update:
		content, err := source.Read(ctx, op.Path)
		if err != nil {
			return fmt.Errorf("reading source: %w", err)
		}
		return dest.Write(ctx, op.Path, content)
	case Delete:
		return dest.Delete(ctx, op.Path)
	default:
		return fmt.Errorf("unknown operation kind %d", op.Kind)
	}
}
