// Package testutil provides an in-memory fake of the remote outline
// API plus helpers for wiring up a cache and service in tests.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/outline"
	"github.com/starford/laguz/internal/remote"
	"github.com/starford/laguz/internal/snapshot"
)

// Ptr returns a pointer to v, for building optional fields in tests.
func Ptr[T any](v T) *T {
	return &v
}

// FakeAPI is an in-memory remote.API. Exports serve the Nodes slice;
// mutations apply to it. RateLimit makes exports fail with a
// RateLimitedError; FailWith makes every call fail with that error.
type FakeAPI struct {
	mu sync.Mutex

	Nodes   []models.Node
	Targets []models.Target

	RateLimit  bool
	RetryAfter int
	FailWith   error

	ExportCalls   int
	MutationCalls int

	nextID int
}

// ExportAll returns a copy of the current node set, or the configured
// failure.
func (f *FakeAPI) ExportAll(_ context.Context) ([]models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExportCalls++
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	if f.RateLimit {
		ra := f.RetryAfter
		if ra == 0 {
			ra = apperr.DefaultRetryAfter
		}
		return nil, &apperr.RateLimitedError{RetryAfter: ra}
	}
	return append([]models.Node(nil), f.Nodes...), nil
}

// GetNode returns the node with the given id.
func (f *FakeAPI) GetNode(_ context.Context, id string) (*models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	for _, n := range f.Nodes {
		if n.ID == id {
			c := n.Clone()
			return &c, nil
		}
	}
	return nil, &apperr.UpstreamError{Status: 404, Message: "no such node"}
}

// ListNodes returns the direct children of parentID.
func (f *FakeAPI) ListNodes(_ context.Context, parentID string) ([]models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	var out []models.Node
	for _, n := range f.Nodes {
		switch {
		case parentID == "" && n.ParentID == nil:
			out = append(out, n)
		case n.ParentID != nil && *n.ParentID == parentID:
			out = append(out, n)
		}
	}
	return out, nil
}

// CreateNode appends a node with a generated id.
func (f *FakeAPI) CreateNode(_ context.Context, req remote.CreateRequest) (*models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MutationCalls++
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.nextID++
	n := models.Node{
		ID:       fmt.Sprintf("fake-%d", f.nextID),
		ParentID: &req.ParentID,
		Name:     req.Name,
		Priority: req.Priority,
	}
	if req.Note != nil {
		n.Note = *req.Note
	}
	if req.LayoutMode != nil {
		n.LayoutMode = *req.LayoutMode
	}
	f.Nodes = append(f.Nodes, n)
	c := n.Clone()
	return &c, nil
}

// UpdateNode applies the present fields to the node.
func (f *FakeAPI) UpdateNode(_ context.Context, id string, req remote.UpdateRequest) (*models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MutationCalls++
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	for i := range f.Nodes {
		if f.Nodes[i].ID != id {
			continue
		}
		if req.Name != nil {
			f.Nodes[i].Name = *req.Name
		}
		if req.Note != nil {
			f.Nodes[i].Note = *req.Note
		}
		if req.LayoutMode != nil {
			f.Nodes[i].LayoutMode = *req.LayoutMode
		}
		c := f.Nodes[i].Clone()
		return &c, nil
	}
	return nil, &apperr.UpstreamError{Status: 404, Message: "no such node"}
}

// DeleteNode removes the node.
func (f *FakeAPI) DeleteNode(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MutationCalls++
	if f.FailWith != nil {
		return f.FailWith
	}
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			f.Nodes = append(f.Nodes[:i], f.Nodes[i+1:]...)
			return nil
		}
	}
	return &apperr.UpstreamError{Status: 404, Message: "no such node"}
}

// MoveNode reparents the node.
func (f *FakeAPI) MoveNode(_ context.Context, id string, req remote.MoveRequest) (*models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MutationCalls++
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	for i := range f.Nodes {
		if f.Nodes[i].ID != id {
			continue
		}
		parent := req.ParentID
		f.Nodes[i].ParentID = &parent
		f.Nodes[i].Priority = req.Priority
		c := f.Nodes[i].Clone()
		return &c, nil
	}
	return nil, &apperr.UpstreamError{Status: 404, Message: "no such node"}
}

// CompleteNode sets the completed flag.
func (f *FakeAPI) CompleteNode(ctx context.Context, id string) (*models.Node, error) {
	return f.setCompleted(id, true)
}

// UncompleteNode clears the completed flag.
func (f *FakeAPI) UncompleteNode(ctx context.Context, id string) (*models.Node, error) {
	return f.setCompleted(id, false)
}

func (f *FakeAPI) setCompleted(id string, completed bool) (*models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MutationCalls++
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			f.Nodes[i].Completed = completed
			c := f.Nodes[i].Clone()
			return &c, nil
		}
	}
	return nil, &apperr.UpstreamError{Status: 404, Message: "no such node"}
}

// ListTargets returns the configured targets.
func (f *FakeAPI) ListTargets(_ context.Context) ([]models.Target, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	return append([]models.Target(nil), f.Targets...), nil
}

// Exports returns the export call count.
func (f *FakeAPI) Exports() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ExportCalls
}

// SetRateLimit toggles rate limiting on exports.
func (f *FakeAPI) SetRateLimit(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RateLimit = on
}

// Outline builds a small outline: root with children a and b, and c
// under a. Useful as a shared fixture.
func Outline() []models.Node {
	root := "root"
	a := "a"
	return []models.Node{
		{ID: "root", Name: "Root"},
		{ID: "a", ParentID: &root, Name: "Alpha", Note: "first child"},
		{ID: "b", ParentID: &root, Name: "Beta"},
		{ID: "c", ParentID: &a, Name: "Gamma"},
	}
}

// TestService wires a FakeAPI into a cache and outline service with
// the given freshness window.
func TestService(t *testing.T, fake *FakeAPI, freshness time.Duration) (*outline.Service, *snapshot.Cache) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	cache := snapshot.New(fake, freshness, logger)
	return outline.NewService(fake, cache), cache
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
