// Package generate requests UI markup for frames and streams it into
// generated UI shapes on the canvas.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

// Endpoint paths relative to the configured base URL.
const (
	PathDesign           = "/api/generate"
	PathWorkflow         = "/api/generate/workflow"
	PathRedesign         = "/api/generate/redesign"
	PathWorkflowRedesign = "/api/generate/workflow-redesign"
)

// DesignRequest is the multipart upload of a frame snapshot.
type DesignRequest struct {
	Image       []byte
	FileName    string
	FrameNumber int
	ProjectID   string
}

// WorkflowRequest asks for one page of a multi-page flow.
type WorkflowRequest struct {
	GeneratedUUID string  `json:"generatedUUID"`
	CurrentHTML   *string `json:"currentHTML"`
	ProjectID     string  `json:"projectId"`
	PageIndex     int     `json:"pageIndex"`
}

// RedesignRequest asks for a revision of existing markup.
type RedesignRequest struct {
	UserMessage       string  `json:"userMessage"`
	GeneratedUUID     string  `json:"generatedUUID"`
	CurrentHTML       *string `json:"currentHTML"`
	ProjectID         string  `json:"projectId"`
	WireframeSnapshot *string `json:"wireframeSnapshot,omitempty"`
}

// StatusError is a non-2xx reply from the generation service.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: status %d", e.Path, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client talks to the generation service.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a client for the service at base. A nil hc uses
// http.DefaultClient.
func NewClient(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

// Design uploads a snapshot and returns the markup stream.
func (c *Client) Design(ctx context.Context, r DesignRequest) (io.ReadCloser, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, r.FileName))
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(r.Image); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := w.WriteField("frameNumber", strconv.Itoa(r.FrameNumber)); err != nil {
		return nil, err
	}
	if r.ProjectID != "" {
		if err := w.WriteField("projectId", r.ProjectID); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return c.post(ctx, PathDesign, w.FormDataContentType(), body)
}

// Workflow requests one workflow page.
func (c *Client) Workflow(ctx context.Context, r WorkflowRequest) (io.ReadCloser, error) {
	return c.postJSON(ctx, PathWorkflow, r)
}

// Redesign requests a revision. Workflow pages use their own endpoint.
func (c *Client) Redesign(ctx context.Context, r RedesignRequest, workflowPage bool) (io.ReadCloser, error) {
	path := PathRedesign
	if workflowPage {
		path = PathWorkflowRedesign
		r.WireframeSnapshot = nil
	}
	return c.postJSON(ctx, path, r)
}

func (c *Client) postJSON(ctx context.Context, path string, v any) (io.ReadCloser, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	return c.post(ctx, path, "application/json", bytes.NewReader(b))
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return resp.Body, nil
}
