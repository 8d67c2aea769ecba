package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/s2c/internal/store"
	"github.com/example/s2c/internal/viewport"
)

// ResponseError is a non-2xx reply from the project API.
type ResponseError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// Client calls a remote project API. It satisfies autosave.Saver.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the server at base. A nil hc uses
// http.DefaultClient.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

func projectPath(id string) string { return "/api/projects/" + url.PathEscape(id) }

// List returns the project summaries, newest first.
func (c *Client) List(ctx context.Context) ([]*store.Project, error) {
	var out struct {
		Projects []*store.Project `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// Create makes a new empty project.
func (c *Client) Create(ctx context.Context, name string) (*store.Project, error) {
	var p store.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", createRequest{Name: name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Get fetches one project including its shapes.
func (c *Client) Get(ctx context.Context, id string) (*store.Project, error) {
	var p store.Project
	if err := c.do(ctx, http.MethodGet, projectPath(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save replaces the shapes and viewport of a project.
func (c *Client) Save(ctx context.Context, projectID string, shapes json.RawMessage, vp viewport.Data) error {
	return c.do(ctx, http.MethodPut, projectPath(projectID), SaveRequest{Shapes: shapes, Viewport: vp}, nil)
}

// Delete removes a project.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &ResponseError{Method: method, Path: path, Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
