package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/leanctl/leanctl/internal/compose"
)

// fakeRuntime records runtime calls and returns scripted outcomes.
type fakeRuntime struct {
	available   error
	imageExists bool
	pullErr     error
	runErr      error
	running     bool
	exitCode    int
	waitErr     error
	waitBlocks  bool
	logs        string

	pulled   []string
	launched int
	stopped  int
	removed  int

	files map[string][]byte
}

func (f *fakeRuntime) Available(ctx context.Context) error { return f.available }

func (f *fakeRuntime) ImageExists(ctx context.Context, ref string) (bool, error) {
	return f.imageExists, nil
}

func (f *fakeRuntime) PullImage(ctx context.Context, ref string) error {
	if f.pullErr != nil {
		return f.pullErr
	}
	f.pulled = append(f.pulled, ref)
	return nil
}

func (f *fakeRuntime) RunContainer(ctx context.Context, plan *Plan) (*Handle, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	f.launched++
	return &Handle{ID: "abc123", Name: plan.Name}, nil
}

func (f *fakeRuntime) StreamLogs(ctx context.Context, h *Handle, w io.Writer) error {
	_, err := io.WriteString(w, f.logs)
	return err
}

func (f *fakeRuntime) WaitForExit(ctx context.Context, h *Handle) (int, error) {
	if f.waitBlocks {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if f.waitErr != nil {
		return 0, f.waitErr
	}
	return f.exitCode, nil
}

func (f *fakeRuntime) IsRunning(ctx context.Context, h *Handle) (bool, error) {
	return f.running, nil
}

func (f *fakeRuntime) StopContainer(ctx context.Context, h *Handle) error {
	f.stopped++
	return nil
}

func (f *fakeRuntime) RemoveContainer(ctx context.Context, h *Handle) error {
	f.removed++
	return nil
}

func (f *fakeRuntime) WriteFile(ctx context.Context, h *Handle, path string, content []byte) error {
	if f.files == nil {
		f.files = make(map[string][]byte)
	}
	f.files[path] = content
	return nil
}

func (f *fakeRuntime) ReadFile(ctx context.Context, h *Handle, path string) ([]byte, error) {
	b, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file %s", path)
	}
	return b, nil
}

func testPlan(detach bool) *Plan {
	return &Plan{
		Image:  "quantconnect/lean:latest",
		Name:   "leanctl-test",
		Detach: detach,
	}
}

func TestExecutePullFailureNeverLaunches(t *testing.T) {
	rt := &fakeRuntime{pullErr: errors.New("registry unreachable")}
	o := &Orchestrator{Runtime: rt}

	plan := testPlan(false)
	plan.PullBeforeRun = true

	_, err := o.Execute(context.Background(), plan, io.Discard)
	if err == nil {
		t.Fatal("expected pull failure")
	}
	if rt.launched != 0 {
		t.Errorf("launched %d containers after failed pull", rt.launched)
	}
}

func TestExecutePullsMissingImage(t *testing.T) {
	rt := &fakeRuntime{imageExists: false}
	o := &Orchestrator{Runtime: rt}

	_, err := o.Execute(context.Background(), testPlan(false), io.Discard)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rt.pulled) != 1 {
		t.Errorf("pulled %v, want one pull of the missing image", rt.pulled)
	}
}

func TestExecuteSkipsPullWhenImagePresent(t *testing.T) {
	rt := &fakeRuntime{imageExists: true}
	o := &Orchestrator{Runtime: rt}

	_, err := o.Execute(context.Background(), testPlan(false), io.Discard)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rt.pulled) != 0 {
		t.Errorf("pulled %v, want no pulls", rt.pulled)
	}
}

func TestExecuteAttachedStreamsLogsAndCleansUp(t *testing.T) {
	rt := &fakeRuntime{imageExists: true, logs: "20240101 starting engine\n"}
	o := &Orchestrator{Runtime: rt}

	var buf bytes.Buffer
	res, err := o.Execute(context.Background(), testPlan(false), &buf)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.ExitCode != 0 || res.Detached {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(buf.String(), "starting engine") {
		t.Errorf("logs not streamed: %q", buf.String())
	}
	if rt.removed != 1 {
		t.Errorf("removed = %d, want the finished container removed", rt.removed)
	}
}

func TestExecuteAttachedInterruptStopsContainer(t *testing.T) {
	rt := &fakeRuntime{imageExists: true, waitBlocks: true}
	o := &Orchestrator{Runtime: rt}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := o.Execute(ctx, testPlan(false), io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if rt.stopped != 1 || rt.removed != 1 {
		t.Errorf("stopped = %d, removed = %d, want the interrupted container stopped and removed",
			rt.stopped, rt.removed)
	}
}

func TestExecuteNonZeroExit(t *testing.T) {
	rt := &fakeRuntime{imageExists: true, exitCode: 1}
	o := &Orchestrator{Runtime: rt}

	res, err := o.Execute(context.Background(), testPlan(false), io.Discard)
	var rtErr *RuntimeError
	if !errors.As(err, &rtErr) {
		t.Fatalf("err = %v, want RuntimeError", err)
	}
	if res == nil || res.ExitCode != 1 {
		t.Errorf("result = %+v, want exit code 1", res)
	}
}

func TestExecuteDetachedVerifiesRunning(t *testing.T) {
	rt := &fakeRuntime{imageExists: true, running: true}
	o := &Orchestrator{Runtime: rt}

	res, err := o.Execute(context.Background(), testPlan(true), io.Discard)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Detached || res.Handle == nil {
		t.Errorf("result = %+v, want detached with handle", res)
	}
	if rt.stopped != 0 || rt.removed != 0 {
		t.Error("detached container must be left running")
	}
}

func TestExecuteDetachedImmediateExit(t *testing.T) {
	rt := &fakeRuntime{imageExists: true, running: false}
	o := &Orchestrator{Runtime: rt}

	_, err := o.Execute(context.Background(), testPlan(true), io.Discard)
	if err == nil || !strings.Contains(err.Error(), "exited immediately") {
		t.Fatalf("err = %v, want immediate-exit failure", err)
	}
}

func TestPrepareFailsFastWhenRuntimeUnavailable(t *testing.T) {
	rt := &fakeRuntime{available: errors.New("docker daemon not running")}
	o := &Orchestrator{Runtime: rt, Planner: &Planner{}}

	rc := &compose.RunConfiguration{
		Mode:        compose.Backtest,
		EngineImage: "quantconnect/lean:latest",
		ProjectDir:  t.TempDir(),
		OutputDir:   t.TempDir(),
	}
	_, err := o.Prepare(context.Background(), rc)
	if err == nil || !strings.Contains(err.Error(), "daemon not running") {
		t.Fatalf("err = %v, want availability failure", err)
	}
}

func TestPrepareRejectsIncompleteConfiguration(t *testing.T) {
	o := &Orchestrator{Runtime: &fakeRuntime{}, Planner: &Planner{}}

	_, err := o.Prepare(context.Background(), &compose.RunConfiguration{})
	if err == nil || !strings.Contains(err.Error(), "incomplete") {
		t.Fatalf("err = %v, want incomplete-configuration failure", err)
	}
}
