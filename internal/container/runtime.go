// Package container turns a composed run configuration into a container
// execution plan and drives the container's lifecycle.
package container

import (
	"context"
	"fmt"
	"io"
)

// RuntimeError classifies failures of the container runtime: runtime
// unavailable, image pull failure, port conflict, non-zero exit. All are
// fatal for the current invocation.
type RuntimeError struct {
	Op     string
	Detail string
	Err    error
}

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("container runtime: %s", e.Op)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Handle identifies a launched container.
type Handle struct {
	ID   string
	Name string
}

// Runtime is the capability set the orchestrator and the live command channel
// need from a container runtime. DockerRuntime implements it against the
// docker CLI; tests inject fakes.
type Runtime interface {
	// Available reports whether the runtime can be used at all. Checked
	// before any plan is attempted.
	Available(ctx context.Context) error

	ImageExists(ctx context.Context, ref string) (bool, error)
	PullImage(ctx context.Context, ref string) error

	RunContainer(ctx context.Context, plan *Plan) (*Handle, error)
	StreamLogs(ctx context.Context, h *Handle, w io.Writer) error
	WaitForExit(ctx context.Context, h *Handle) (int, error)
	IsRunning(ctx context.Context, h *Handle) (bool, error)
	StopContainer(ctx context.Context, h *Handle) error
	RemoveContainer(ctx context.Context, h *Handle) error

	// WriteFile and ReadFile move small control files in and out of a
	// running container, used by the live command channel.
	WriteFile(ctx context.Context, h *Handle, path string, content []byte) error
	ReadFile(ctx context.Context, h *Handle, path string) ([]byte, error)
}
