package container

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// scriptedRunner answers docker invocations from a script keyed by the first
// few arguments.
type scriptedRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   [][]string
	stdin   []byte
}

func (r *scriptedRunner) key(args []string) string {
	n := len(args)
	if n > 2 {
		n = 2
	}
	return strings.Join(args[:n], " ")
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	k := r.key(args)
	return []byte(r.outputs[k]), r.errs[k]
}

func (r *scriptedRunner) RunInput(ctx context.Context, input []byte, name string, args ...string) ([]byte, error) {
	r.stdin = input
	return r.Run(ctx, name, args...)
}

func (r *scriptedRunner) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	k := r.key(args)
	io.WriteString(w, r.outputs[k])
	return r.errs[k]
}

func TestDockerRunContainerArgs(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{"run --detach": "deadbeef\n"}}
	d := NewDockerRuntimeWithRunner(runner)

	plan := &Plan{
		Image: "quantconnect/lean:latest",
		Name:  "leanctl-test",
		Mounts: []Mount{
			{Host: "/projects/demo", Container: ProjectMountPath, Mode: "rw"},
		},
		Ports: []Port{{Host: 8888, Container: 8888}},
	}

	h, err := d.RunContainer(context.Background(), plan)
	if err != nil {
		t.Fatalf("RunContainer: %v", err)
	}
	if h.ID != "deadbeef" || h.Name != "leanctl-test" {
		t.Errorf("handle = %+v", h)
	}

	joined := strings.Join(runner.calls[0], " ")
	for _, want := range []string{
		"--volume /projects/demo:" + ProjectMountPath + ":rw",
		"--publish 8888:8888",
		"--name leanctl-test",
		"quantconnect/lean:latest",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("docker args %q missing %q", joined, want)
		}
	}
}

func TestDockerRunContainerPortConflict(t *testing.T) {
	runner := &scriptedRunner{
		outputs: map[string]string{"run --detach": "driver failed: Bind for 0.0.0.0:8888 failed: port is already allocated"},
		errs:    map[string]error{"run --detach": errors.New("exit status 125")},
	}
	d := NewDockerRuntimeWithRunner(runner)

	plan := &Plan{
		Image: "quantconnect/research:latest",
		Name:  "leanctl-test",
		Ports: []Port{{Host: 8888, Container: 8888}},
	}

	_, err := d.RunContainer(context.Background(), plan)
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("err = %v, want RuntimeError", err)
	}
	if !strings.Contains(rtErr.Detail, "port 8888") {
		t.Errorf("detail = %q, want the conflicting port named", rtErr.Detail)
	}
}

func TestDockerWaitForExit(t *testing.T) {
	runner := &scriptedRunner{outputs: map[string]string{"wait abc": "137\n"}}
	d := NewDockerRuntimeWithRunner(runner)

	code, err := d.WaitForExit(context.Background(), &Handle{ID: "abc"})
	if err != nil {
		t.Fatalf("WaitForExit: %v", err)
	}
	if code != 137 {
		t.Errorf("code = %d", code)
	}
}

func TestDockerImageExists(t *testing.T) {
	runner := &scriptedRunner{errs: map[string]error{"image inspect": errors.New("exit status 1")}}
	d := NewDockerRuntimeWithRunner(runner)

	exists, err := d.ImageExists(context.Background(), "missing:latest")
	if err != nil || exists {
		t.Errorf("exists = %v, err = %v, want image reported absent", exists, err)
	}
}

func TestDockerWriteFileQuotesPath(t *testing.T) {
	runner := &scriptedRunner{}
	d := NewDockerRuntimeWithRunner(runner)

	content := []byte(`{"$type":"cmd"}`)
	if err := d.WriteFile(context.Background(), &Handle{ID: "abc"}, "/Lean/Launcher/bin/Debug/command-1.json", content); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if string(runner.stdin) != string(content) {
		t.Errorf("stdin = %q", runner.stdin)
	}
	joined := strings.Join(runner.calls[0], " ")
	if !strings.Contains(joined, "cat > '/Lean/Launcher/bin/Debug/command-1.json'") {
		t.Errorf("args = %q, want quoted target path", joined)
	}
}

func TestConflictingPort(t *testing.T) {
	ports := []Port{{Host: 5678, Container: 5678}, {Host: 8888, Container: 8888}}

	port, ok := conflictingPort("Bind for 0.0.0.0:8888 failed: port is already allocated", ports)
	if !ok || port != 8888 {
		t.Errorf("port = %d, ok = %v", port, ok)
	}

	if _, ok := conflictingPort("no such image", ports); ok {
		t.Error("unrelated failure must not be classified as a port conflict")
	}
}

func TestShellQuote(t *testing.T) {
	if got := shellQuote("/plain/path.json"); got != "'/plain/path.json'" {
		t.Errorf("got %q", got)
	}
	if got := shellQuote("it's"); got != `'it'\''s'` {
		t.Errorf("got %q", got)
	}
}
