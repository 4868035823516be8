// Package leanctl provides the public Go library API for embedding the
// project reconciliation engine in other programs.
//
// # Basic usage
//
//	client := leanctl.New(apiClient)
//
//	// Compute the operations a push would perform.
//	plan, err := client.PushPlan(ctx, "/path/to/project", 12345, leanctl.SyncOptions{})
//
//	// Apply them.
//	result, err := client.Push(ctx, "/path/to/project", 12345, leanctl.SyncOptions{})
package leanctl

import (
	"context"

	"github.com/leanctl/leanctl/internal/api"
	"github.com/leanctl/leanctl/internal/reconcile"
	"github.com/leanctl/leanctl/internal/snapshot"
)

// SyncOptions configures one sync direction.
type SyncOptions struct {
	// ForceDelete removes destination files that have no source counterpart.
	ForceDelete bool

	// Workers bounds concurrent file operations. Zero uses the default.
	Workers int
}

// Client exposes push and pull reconciliation against the platform.
type Client struct {
	api api.ProjectClient
}

// New creates a Client over an authenticated platform client.
func New(apiClient api.ProjectClient) *Client {
	return &Client{api: apiClient}
}

// PushPlan computes the operations that would make the cloud project match
// the local directory, without applying them.
func (c *Client) PushPlan(ctx context.Context, projectDir string, cloudID int, opts SyncOptions) (*Plan, error) {
	local, err := snapshot.Local(projectDir)
	if err != nil {
		return nil, err
	}
	remote, err := snapshot.Remote(ctx, c.api, cloudID)
	if err != nil {
		return nil, err
	}
	return reconcile.Diff(local, remote, reconcile.Push, opts.ForceDelete), nil
}

// Push makes the cloud project match the local directory.
func (c *Client) Push(ctx context.Context, projectDir string, cloudID int, opts SyncOptions) (*Result, error) {
	plan, err := c.PushPlan(ctx, projectDir, cloudID, opts)
	if err != nil {
		return nil, err
	}
	source := &reconcile.LocalApplier{Root: projectDir}
	dest := &reconcile.CloudApplier{Client: c.api, ProjectID: cloudID}
	return reconcile.Apply(ctx, plan, source, dest, opts.Workers)
}

// PullPlan computes the operations that would make the local directory match
// the cloud project, without applying them.
func (c *Client) PullPlan(ctx context.Context, projectDir string, cloudID int, opts SyncOptions) (*Plan, error) {
	remote, err := snapshot.Remote(ctx, c.api, cloudID)
	if err != nil {
		return nil, err
	}
	local, err := snapshot.Local(projectDir)
	if err != nil {
		return nil, err
	}
	return reconcile.Diff(remote, local, reconcile.Pull, opts.ForceDelete), nil
}

// Pull makes the local directory match the cloud project.
func (c *Client) Pull(ctx context.Context, projectDir string, cloudID int, opts SyncOptions) (*Result, error) {
	plan, err := c.PullPlan(ctx, projectDir, cloudID, opts)
	if err != nil {
		return nil, err
	}
	source := &reconcile.CloudApplier{Client: c.api, ProjectID: cloudID}
	dest := &reconcile.LocalApplier{Root: projectDir}
	return reconcile.Apply(ctx, plan, source, dest, opts.Workers)
}
