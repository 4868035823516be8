package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external binary. Injectable so tests can run against a
// fake docker.
type Runner interface {
	// Run executes and returns combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunInput executes with stdin attached to input.
	RunInput(ctx context.Context, input []byte, name string, args ...string) ([]byte, error)
	// Stream executes with stdout and stderr attached to w until exit.
	Stream(ctx context.Context, w io.Writer, name string, args ...string) error
}

// OSRunner runs commands on the host.
type OSRunner struct{}

func (OSRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func (OSRunner) RunInput(ctx context.Context, input []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(input)
	return cmd.CombinedOutput()
}

func (OSRunner) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = w
	cmd.Stderr = w
	return cmd.Run()
}

// DockerRuntime implements Runtime against the docker CLI.
type DockerRuntime struct {
	runner Runner
}

// NewDockerRuntime creates a DockerRuntime using the host's docker binary.
func NewDockerRuntime() *DockerRuntime {
	return &DockerRuntime{runner: OSRunner{}}
}

// NewDockerRuntimeWithRunner creates a DockerRuntime with an injected runner.
func NewDockerRuntimeWithRunner(r Runner) *DockerRuntime {
	return &DockerRuntime{runner: r}
}

func (d *DockerRuntime) Available(ctx context.Context) error {
	out, err := d.runner.Run(ctx, "docker", "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return &RuntimeError{Op: "unavailable", Detail: trimOutput(out), Err: err}
	}
	return nil
}

func (d *DockerRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, err := d.runner.Run(ctx, "docker", "image", "inspect", ref)
	if err != nil {
		// inspect fails for unknown images; there is no distinct exit code,
		// so a failure here means "not present locally".
		return false, nil
	}
	return true, nil
}

func (d *DockerRuntime) PullImage(ctx context.Context, ref string) error {
	out, err := d.runner.Run(ctx, "docker", "pull", ref)
	if err != nil {
		return &RuntimeError{Op: "pull " + ref, Detail: trimOutput(out), Err: err}
	}
	return nil
}

func (d *DockerRuntime) RunContainer(ctx context.Context, plan *Plan) (*Handle, error) {
	args := []string{"run", "--detach", "--name", plan.Name}
	for _, m := range plan.Mounts {
		args = append(args, "--volume", fmt.Sprintf("%s:%s:%s", m.Host, m.Container, m.Mode))
	}
	for _, p := range plan.Ports {
		args = append(args, "--publish", fmt.Sprintf("%d:%d", p.Host, p.Container))
	}
	for k, v := range plan.Env {
		args = append(args, "--env", fmt.Sprintf("%s=%s", k, v))
	}
	args = append(args, plan.Image)
	args = append(args, plan.Command...)

	out, err := d.runner.Run(ctx, "docker", args...)
	if err != nil {
		detail := trimOutput(out)
		if port, ok := conflictingPort(detail, plan.Ports); ok {
			return nil, &RuntimeError{Op: "launch", Detail: fmt.Sprintf("port %d is already in use", port), Err: err}
		}
		return nil, &RuntimeError{Op: "launch", Detail: detail, Err: err}
	}
	return &Handle{ID: trimOutput(out), Name: plan.Name}, nil
}

func (d *DockerRuntime) StreamLogs(ctx context.Context, h *Handle, w io.Writer) error {
	return d.runner.Stream(ctx, w, "docker", "logs", "--follow", h.ID)
}

func (d *DockerRuntime) WaitForExit(ctx context.Context, h *Handle) (int, error) {
	out, err := d.runner.Run(ctx, "docker", "wait", h.ID)
	if err != nil {
		return -1, &RuntimeError{Op: "wait", Detail: trimOutput(out), Err: err}
	}
	code, err := strconv.Atoi(trimOutput(out))
	if err != nil {
		return -1, &RuntimeError{Op: "wait", Detail: "unexpected output " + trimOutput(out)}
	}
	return code, nil
}

func (d *DockerRuntime) IsRunning(ctx context.Context, h *Handle) (bool, error) {
	out, err := d.runner.Run(ctx, "docker", "inspect", "--format", "{{.State.Running}}", h.ID)
	if err != nil {
		return false, nil
	}
	return trimOutput(out) == "true", nil
}

func (d *DockerRuntime) StopContainer(ctx context.Context, h *Handle) error {
	out, err := d.runner.Run(ctx, "docker", "stop", h.ID)
	if err != nil {
		return &RuntimeError{Op: "stop", Detail: trimOutput(out), Err: err}
	}
	return nil
}

func (d *DockerRuntime) RemoveContainer(ctx context.Context, h *Handle) error {
	out, err := d.runner.Run(ctx, "docker", "rm", "--force", h.ID)
	if err != nil {
		return &RuntimeError{Op: "remove", Detail: trimOutput(out), Err: err}
	}
	return nil
}

func (d *DockerRuntime) WriteFile(ctx context.Context, h *Handle, path string, content []byte) error {
	out, err := d.runner.RunInput(ctx, content, "docker", "exec", "--interactive", h.ID,
		"sh", "-c", fmt.Sprintf("cat > %s", shellQuote(path)))
	if err != nil {
		return &RuntimeError{Op: "write " + path, Detail: trimOutput(out), Err: err}
	}
	return nil
}

func (d *DockerRuntime) ReadFile(ctx context.Context, h *Handle, path string) ([]byte, error) {
	out, err := d.runner.Run(ctx, "docker", "exec", h.ID, "cat", path)
	if err != nil {
		return nil, &RuntimeError{Op: "read " + path, Detail: trimOutput(out), Err: err}
	}
	return out, nil
}

func trimOutput(out []byte) string {
	return strings.TrimSpace(string(out))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// conflictingPort matches docker's bind failure message to one of the plan's
// ports so the error can name the specific port.
func conflictingPort(detail string, ports []Port) (int, bool) {
	if !strings.Contains(detail, "port is already allocated") &&
		!strings.Contains(detail, "address already in use") {
		return 0, false
	}
	for _, p := range ports {
		if strings.Contains(detail, strconv.Itoa(p.Host)) {
			return p.Host, true
		}
	}
	if len(ports) > 0 {
		return ports[0].Host, true
	}
	return 0, false
}
