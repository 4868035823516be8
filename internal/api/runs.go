package api

import (
	"context"
	"fmt"
)

// Run statuses reported by the platform.
const (
	RunStatusInQueue   = "in_queue"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusError     = "error"
	RunStatusStopped   = "stopped"
)

// Run describes one backtest, optimization, or live deployment on the
// platform.
type Run struct {
	ID        string  `json:"runId"`
	ProjectID int     `json:"projectId"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// RunClient is the lifecycle capability set for platform-side executions.
type RunClient interface {
	StartBacktest(ctx context.Context, projectID int, name string) (*Run, error)
	StartOptimization(ctx context.Context, projectID int, config map[string]any) (*Run, error)
	StartLiveDeployment(ctx context.Context, projectID int, config map[string]any) (*Run, error)
	GetRunStatus(ctx context.Context, runID string) (*Run, error)
	StopLiveDeployment(ctx context.Context, projectID int) error
	LiquidateLiveDeployment(ctx context.Context, projectID int) error
}

type runResponse struct {
	responseEnvelope
	Runs []Run `json:"runs"`
}

// StartBacktest requests a cloud backtest of the project's current files.
func (c *Client) StartBacktest(ctx context.Context, projectID int, name string) (*Run, error) {
	var resp runResponse
	body := map[string]any{"projectId": projectID, "backtestName": name}
	if err := c.post(ctx, "/backtests/create", body, &resp); err != nil {
		return nil, err
	}
	return firstRun(resp, "backtest")
}

// StartOptimization requests a cloud parameter optimization.
func (c *Client) StartOptimization(ctx context.Context, projectID int, config map[string]any) (*Run, error) {
	var resp runResponse
	body := map[string]any{"projectId": projectID}
	for k, v := range config {
		body[k] = v
	}
	if err := c.post(ctx, "/optimizations/create", body, &resp); err != nil {
		return nil, err
	}
	return firstRun(resp, "optimization")
}

// StartLiveDeployment requests a cloud live deployment with the given
// brokerage settings.
func (c *Client) StartLiveDeployment(ctx context.Context, projectID int, config map[string]any) (*Run, error) {
	var resp runResponse
	body := map[string]any{"projectId": projectID}
	for k, v := range config {
		body[k] = v
	}
	if err := c.post(ctx, "/live/create", body, &resp); err != nil {
		return nil, err
	}
	return firstRun(resp, "live deployment")
}

// GetRunStatus reads the current status of a run.
func (c *Client) GetRunStatus(ctx context.Context, runID string) (*Run, error) {
	var resp runResponse
	if err := c.get(ctx, "/runs/read", map[string]string{"runId": runID}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return &resp.Runs[0], nil
}

// StopLiveDeployment stops the project's running cloud deployment.
func (c *Client) StopLiveDeployment(ctx context.Context, projectID int) error {
	var resp responseEnvelope
	return c.post(ctx, "/live/update/stop", map[string]any{"projectId": projectID}, &resp)
}

// LiquidateLiveDeployment liquidates all holdings and stops the deployment.
func (c *Client) LiquidateLiveDeployment(ctx context.Context, projectID int) error {
	var resp responseEnvelope
	return c.post(ctx, "/live/update/liquidate", map[string]any{"projectId": projectID}, &resp)
}

func firstRun(resp runResponse, kind string) (*Run, error) {
	if len(resp.Runs) == 0 {
		return nil, &APIError{Status: 200, Message: kind + " create returned no run"}
	}
	return &resp.Runs[0], nil
}
