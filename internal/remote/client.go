// Package remote implements the HTTP adapter for the hosted outline
// service. It holds no cache state: every method is a single request,
// classified into a typed payload or a typed failure.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// API is the set of remote endpoints the rest of the application
// consumes. *Client is the production implementation; tests substitute
// an in-memory fake.
type API interface {
	ExportAll(ctx context.Context) ([]models.Node, error)
	GetNode(ctx context.Context, id string) (*models.Node, error)
	ListNodes(ctx context.Context, parentID string) ([]models.Node, error)
	CreateNode(ctx context.Context, req CreateRequest) (*models.Node, error)
	UpdateNode(ctx context.Context, id string, req UpdateRequest) (*models.Node, error)
	DeleteNode(ctx context.Context, id string) error
	MoveNode(ctx context.Context, id string, req MoveRequest) (*models.Node, error)
	CompleteNode(ctx context.Context, id string) (*models.Node, error)
	UncompleteNode(ctx context.Context, id string) (*models.Node, error)
	ListTargets(ctx context.Context) ([]models.Target, error)
}

// CreateRequest is the wire shape for creating a node. Optional fields
// are pointers so absent values are omitted rather than sent as nulls.
type CreateRequest struct {
	ParentID   string  `json:"parent_id"`
	Name       string  `json:"name"`
	Note       *string `json:"note,omitempty"`
	LayoutMode *string `json:"layout_mode,omitempty"`
	Priority   *int    `json:"priority,omitempty"`
}

// UpdateRequest is the wire shape for updating a node. Only the fields
// present are changed remotely.
type UpdateRequest struct {
	Name       *string `json:"name,omitempty"`
	Note       *string `json:"note,omitempty"`
	LayoutMode *string `json:"layout_mode,omitempty"`
}

// MoveRequest is the wire shape for moving a node. When Priority is
// nil the remote service appends at its own default position.
type MoveRequest struct {
	ParentID string `json:"parent_id"`
	Priority *int   `json:"priority,omitempty"`
}

// Client talks to the hosted outline API over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client for the given base URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do issues one request and classifies the response: 429 becomes a
// RateLimitedError, any other non-2xx becomes an UpstreamError, and a
// 2xx body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &apperr.RateLimitedError{RetryAfter: retryAfter(resp)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apperr.UpstreamError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(msg)),
		}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// retryAfter reads the Retry-After header, falling back to the default
// hint when it is absent or malformed.
func retryAfter(resp *http.Response) int {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return apperr.DefaultRetryAfter
}

type exportResponse struct {
	Nodes []models.Node `json:"nodes"`
}

// ExportAll fetches every node in the outline. The remote service
// allows roughly one export per minute, so callers go through the
// snapshot cache rather than calling this directly.
func (c *Client) ExportAll(ctx context.Context) ([]models.Node, error) {
	var res exportResponse
	if err := c.do(ctx, http.MethodGet, "/nodes-export", nil, &res); err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

// GetNode fetches a single node by id.
func (c *Client) GetNode(ctx context.Context, id string) (*models.Node, error) {
	var n models.Node
	if err := c.do(ctx, http.MethodGet, "/nodes/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

type listResponse struct {
	Nodes []models.Node `json:"nodes"`
}

// ListNodes fetches the direct children of parentID, or the root-level
// nodes when parentID is empty.
func (c *Client) ListNodes(ctx context.Context, parentID string) ([]models.Node, error) {
	path := "/nodes"
	if parentID != "" {
		path += "?parent_id=" + url.QueryEscape(parentID)
	}
	var res listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Nodes, nil
}

// CreateNode creates a node under req.ParentID.
func (c *Client) CreateNode(ctx context.Context, req CreateRequest) (*models.Node, error) {
	var n models.Node
	if err := c.do(ctx, http.MethodPost, "/nodes", req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNode changes the fields present in req on the node.
func (c *Client) UpdateNode(ctx context.Context, id string, req UpdateRequest) (*models.Node, error) {
	var n models.Node
	if err := c.do(ctx, http.MethodPatch, "/nodes/"+url.PathEscape(id), req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNode removes a node and its descendants.
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/nodes/"+url.PathEscape(id), nil, nil)
}

// MoveNode reparents a node.
func (c *Client) MoveNode(ctx context.Context, id string, req MoveRequest) (*models.Node, error) {
	var n models.Node
	if err := c.do(ctx, http.MethodPost, "/nodes/"+url.PathEscape(id)+"/move", req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// CompleteNode marks a node completed.
func (c *Client) CompleteNode(ctx context.Context, id string) (*models.Node, error) {
	var n models.Node
	if err := c.do(ctx, http.MethodPost, "/nodes/"+url.PathEscape(id)+"/complete", nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UncompleteNode clears a node's completion flag.
func (c *Client) UncompleteNode(ctx context.Context, id string) (*models.Node, error) {
	var n models.Node
	if err := c.do(ctx, http.MethodPost, "/nodes/"+url.PathEscape(id)+"/uncomplete", nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

type targetsResponse struct {
	Targets []models.Target `json:"targets"`
}

// ListTargets fetches the locations new nodes may be created under.
func (c *Client) ListTargets(ctx context.Context) ([]models.Target, error) {
	var res targetsResponse
	if err := c.do(ctx, http.MethodGet, "/targets", nil, &res); err != nil {
		return nil, err
	}
	return res.Targets, nil
}
