package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leanctl/leanctl/internal/container"
)

// SessionNotRunningError is returned when a control message targets a
// session that is not running.
type SessionNotRunningError struct {
	ProjectDir string
	Status     string
}

func (e *SessionNotRunningError) Error() string {
	return fmt.Sprintf("live session for %s is %s, not running", e.ProjectDir, e.Status)
}

// Command channel file locations inside the engine container. The engine
// watches its launcher directory for command files and writes a result file
// per command id.
const (
	commandDir        = "/Lean/Launcher/bin/Debug"
	defaultPollEvery  = time.Second
	defaultAckTimeout = 30 * time.Second
)

// commandResult is the engine's acknowledgement document.
type commandResult struct {
	Success          bool   `json:"success"`
	ContainerRunning *bool  `json:"container-running,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Channel delivers control messages to running engine containers and awaits
// their acknowledgement.
type Channel struct {
	Runtime container.Runtime
	Store   *Store

	// PollEvery and AckTimeout bound the wait for the engine's result file.
	// Zero values use the defaults.
	PollEvery  time.Duration
	AckTimeout time.Duration
}

// Send delivers msg to the session's container and waits for the engine's
// acknowledgement. The session must be running. Liquidate and Stop are
// terminal: on acknowledgement the session transitions to stopped and its
// container is torn down. Acknowledgement only confirms delivery; trading
// outcomes are reported asynchronously by the engine's own output.
func (c *Channel) Send(ctx context.Context, sess *Session, msg *Message) error {
	if sess.Status != StatusRunning {
		return &SessionNotRunningError{ProjectDir: sess.ProjectDir, Status: sess.Status}
	}

	handle := &container.Handle{ID: sess.ContainerID}

	doc, err := json.Marshal(msg.Encode())
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	commandPath := fmt.Sprintf("%s/command-%d.json", commandDir, time.Now().Unix())
	if err := c.Runtime.WriteFile(ctx, handle, commandPath, doc); err != nil {
		return fmt.Errorf("delivering command: %w", err)
	}

	// Liquidate and Stop shut the engine down; the container may be gone by
	// the time the result file would be read.
	allowExit := msg.Action.Terminal()

	if err := c.awaitAck(ctx, handle, msg.ID, allowExit); err != nil {
		return err
	}

	if msg.Action.Terminal() {
		return c.finishSession(ctx, sess, handle)
	}
	return nil
}

// awaitAck polls for the engine's result file until it appears or the
// timeout elapses.
func (c *Channel) awaitAck(ctx context.Context, handle *container.Handle, commandID string, allowExit bool) error {
	every := c.PollEvery
	if every <= 0 {
		every = defaultPollEvery
	}
	timeout := c.AckTimeout
	if timeout <= 0 {
		timeout = defaultAckTimeout
	}

	resultPath := fmt.Sprintf("%s/result-%s.json", commandDir, commandID)
	deadline := time.Now().Add(timeout)

	for {
		raw, err := c.Runtime.ReadFile(ctx, handle, resultPath)
		if err == nil {
			var result commandResult
			if err := json.Unmarshal(raw, &result); err != nil {
				return fmt.Errorf("decoding command result: %w", err)
			}
			switch {
			case result.Success:
				return nil
			case result.ContainerRunning != nil && !*result.ContainerRunning:
				if allowExit {
					return nil
				}
				return fmt.Errorf("engine container stopped before executing the command")
			default:
				return fmt.Errorf("command failed: %s", result.Error)
			}
		}

		if allowExit {
			// A terminal command may take the container down before the
			// result file is readable; a dead container counts as delivered.
			if running, rErr := c.Runtime.IsRunning(ctx, handle); rErr == nil && !running {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for command acknowledgement")
		}
		select {
		case <-time.After(every):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// finishSession marks the session stopped and tears the container down.
func (c *Channel) finishSession(ctx context.Context, sess *Session, handle *container.Handle) error {
	if err := c.Store.SetStatus(ctx, sess.ProjectDir, StatusStopped); err != nil {
		return err
	}
	sess.Status = StatusStopped

	_ = c.Runtime.StopContainer(ctx, handle)
	if err := c.Runtime.RemoveContainer(ctx, handle); err == nil {
		// Teardown confirmed: drop the record.
		return c.Store.Delete(ctx, sess.ProjectDir)
	}
	return nil
}
