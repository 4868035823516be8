package api

import (
	"context"
	"fmt"
	"time"
)

// Project is the platform's view of a project.
type Project struct {
	ID       int       `json:"projectId"`
	Name     string    `json:"name"`
	Language string    `json:"language"`
	Created  time.Time `json:"-"`
	Modified time.Time `json:"-"`
}

// ProjectFile is a single file inside a cloud project.
type ProjectFile struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Modified string `json:"modified,omitempty"`
}

// ProjectClient is the capability set the reconciliation and orchestration
// core needs from the platform. The HTTP Client implements it; tests inject
// in-memory fakes.
type ProjectClient interface {
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int) (*Project, error)
	CreateProject(ctx context.Context, name, language string) (*Project, error)
	DeleteProject(ctx context.Context, id int) error

	ListFiles(ctx context.Context, projectID int) ([]ProjectFile, error)
	ReadFile(ctx context.Context, projectID int, path string) ([]byte, error)
	WriteFile(ctx context.Context, projectID int, path string, content []byte) error
	DeleteFile(ctx context.Context, projectID int, path string) error
}

type projectsResponse struct {
	responseEnvelope
	Projects []Project `json:"projects"`
}

type filesResponse struct {
	responseEnvelope
	Files []ProjectFile `json:"files"`
}

// ListProjects returns all projects owned by the authenticated account.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp projectsResponse
	if err := c.get(ctx, "/projects/read", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// GetProject returns the metadata of a single project.
func (c *Client) GetProject(ctx context.Context, id int) (*Project, error) {
	var resp projectsResponse
	if err := c.get(ctx, "/projects/read", map[string]string{"projectId": itoa(id)}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Projects) == 0 {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return &resp.Projects[0], nil
}

// CreateProject creates a new cloud project.
func (c *Client) CreateProject(ctx context.Context, name, language string) (*Project, error) {
	var resp projectsResponse
	body := map[string]any{"name": name, "language": language}
	if err := c.post(ctx, "/projects/create", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Projects) == 0 {
		return nil, &APIError{Status: 200, Message: "project create returned no project"}
	}
	return &resp.Projects[0], nil
}

// DeleteProject removes a cloud project and all its files.
func (c *Client) DeleteProject(ctx context.Context, id int) error {
	var resp responseEnvelope
	return c.post(ctx, "/projects/delete", map[string]any{"projectId": id}, &resp)
}

// ListFiles returns all files of a cloud project, contents included.
func (c *Client) ListFiles(ctx context.Context, projectID int) ([]ProjectFile, error) {
	var resp filesResponse
	if err := c.get(ctx, "/files/read", map[string]string{"projectId": itoa(projectID)}, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// ReadFile returns the content of one cloud file.
func (c *Client) ReadFile(ctx context.Context, projectID int, path string) ([]byte, error) {
	var resp filesResponse
	params := map[string]string{"projectId": itoa(projectID), "name": path}
	if err := c.get(ctx, "/files/read", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Files) == 0 {
		return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	return []byte(resp.Files[0].Content), nil
}

// WriteFile creates or updates one cloud file. The platform upserts on name.
func (c *Client) WriteFile(ctx context.Context, projectID int, path string, content []byte) error {
	var resp responseEnvelope
	body := map[string]any{"projectId": projectID, "name": path, "content": string(content)}
	return c.post(ctx, "/files/update", body, &resp)
}

// DeleteFile removes one cloud file.
func (c *Client) DeleteFile(ctx context.Context, projectID int, path string) error {
	var resp responseEnvelope
	body := map[string]any{"projectId": projectID, "name": path}
	return c.post(ctx, "/files/delete", body, &resp)
}

func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}
