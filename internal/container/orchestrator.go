package container

import (
	"context"
	"fmt"
	"io"

	"github.com/leanctl/leanctl/internal/compose"
)

// Orchestrator launches and supervises engine containers. One execution
// moves Planned → (image pulled) → Launched → Attached or Detached; attached
// runs end Completed or Failed once the exit code is observed.
type Orchestrator struct {
	Runtime Runtime
	Planner *Planner
}

// ExecutionResult reports the outcome of one execution.
type ExecutionResult struct {
	Handle   *Handle
	ExitCode int
	// Detached is set when the container was left running and the exit code
	// is not known yet; log retrieval becomes a separate operation keyed by
	// Handle.
	Detached bool
}

// Prepare verifies the runtime and derives the container plan. Runtime
// unavailability is reported here, before anything is attempted.
func (o *Orchestrator) Prepare(ctx context.Context, rc *compose.RunConfiguration) (*Plan, error) {
	if !rc.Complete() {
		return nil, fmt.Errorf("run configuration is incomplete")
	}
	if err := o.Runtime.Available(ctx); err != nil {
		return nil, err
	}
	return o.Planner.Plan(rc)
}

// Execute runs the plan. Logs of attached runs are streamed to logs.
//
// When the plan requires a pull (update requested, or the image is missing
// locally) a pull failure is fatal: no container is created and no stale
// image is used. A cancelled context during an attached run triggers a
// best-effort stop and removal before returning.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan, logs io.Writer) (*ExecutionResult, error) {
	if err := o.ensureImage(ctx, plan); err != nil {
		return nil, err
	}

	handle, err := o.Runtime.RunContainer(ctx, plan)
	if err != nil {
		return nil, err
	}

	if plan.Detach {
		running, err := o.Runtime.IsRunning(ctx, handle)
		if err != nil {
			return nil, err
		}
		if !running {
			return nil, &RuntimeError{Op: "launch", Detail: fmt.Sprintf("container %s exited immediately", handle.Name)}
		}
		return &ExecutionResult{Handle: handle, Detached: true}, nil
	}

	return o.attach(ctx, plan, handle, logs)
}

func (o *Orchestrator) ensureImage(ctx context.Context, plan *Plan) error {
	if plan.PullBeforeRun {
		return o.Runtime.PullImage(ctx, plan.Image)
	}
	exists, err := o.Runtime.ImageExists(ctx, plan.Image)
	if err != nil {
		return err
	}
	if !exists {
		return o.Runtime.PullImage(ctx, plan.Image)
	}
	return nil
}

func (o *Orchestrator) attach(ctx context.Context, plan *Plan, handle *Handle, logs io.Writer) (*ExecutionResult, error) {
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		// Best effort: the exit code decides success, not the log stream.
		_ = o.Runtime.StreamLogs(ctx, handle, logs)
	}()

	exitCode, waitErr := o.Runtime.WaitForExit(ctx, handle)
	<-streamDone

	if ctx.Err() != nil {
		// Interrupted: stop and clean up before surfacing the cancellation.
		o.cleanup(handle)
		return nil, ctx.Err()
	}
	if waitErr != nil {
		o.cleanup(handle)
		return nil, waitErr
	}

	o.cleanup(handle)

	result := &ExecutionResult{Handle: handle, ExitCode: exitCode}
	if exitCode != 0 {
		return result, &RuntimeError{Op: "run", Detail: fmt.Sprintf("engine exited with code %d", exitCode)}
	}
	return result, nil
}

// cleanup removes the container with a fresh context, so cleanup still runs
// after an interrupt.
func (o *Orchestrator) cleanup(handle *Handle) {
	ctx := context.Background()
	_ = o.Runtime.StopContainer(ctx, handle)
	_ = o.Runtime.RemoveContainer(ctx, handle)
}
