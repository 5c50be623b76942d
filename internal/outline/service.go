// Package outline provides the read views derived from the cached
// snapshot and the mutation coordinator that keeps the cache honest
// across writes.
package outline

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/remote"
	"github.com/starford/laguz/internal/snapshot"
)

// MaxDepth bounds hierarchy materialization.
const MaxDepth = 5

// DefaultMaxResults caps search results when the caller does not.
const DefaultMaxResults = 100

// Service coordinates the snapshot cache and the remote adapter.
type Service struct {
	remote remote.API
	cache  *snapshot.Cache
}

// NewService creates a new outline service.
func NewService(r remote.API, cache *snapshot.Cache) *Service {
	return &Service{remote: r, cache: cache}
}

// NodeList bundles nodes with the provenance of the snapshot they were
// read from.
type NodeList struct {
	Nodes    []models.Node `json:"nodes"`
	Snapshot snapshot.Meta `json:"snapshot"`
}

// Snapshot returns the entire outline from the cache. force bypasses
// the freshness window.
func (s *Service) Snapshot(ctx context.Context, force bool) (*NodeList, error) {
	nodes, meta, err := s.cache.Get(ctx, force)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []models.Node{}
	}
	return &NodeList{Nodes: nodes, Snapshot: meta}, nil
}

// SearchOptions control the substring scan. The zero value is not
// useful; start from DefaultSearchOptions.
type SearchOptions struct {
	MatchName     bool
	MatchNote     bool
	CaseSensitive bool
	MaxResults    int
}

// DefaultSearchOptions matches both name and note, case-insensitively,
// capped at DefaultMaxResults.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{MatchName: true, MatchNote: true, MaxResults: DefaultMaxResults}
}

// Search scans the cached snapshot for nodes whose name or note
// contains query. Results keep snapshot order and are truncated to
// opts.MaxResults; there is no ranking. Search never forces a refresh,
// so it tolerates staleness.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) (*NodeList, error) {
	if query == "" {
		return nil, &apperr.ValidationError{Msg: "query is required"}
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	nodes, meta, err := s.cache.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	needle := query
	if !opts.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	hits := []models.Node{}
	for _, n := range nodes {
		if len(hits) == opts.MaxResults {
			break
		}
		if matches(n, needle, opts) {
			hits = append(hits, n)
		}
	}
	return &NodeList{Nodes: hits, Snapshot: meta}, nil
}

func matches(n models.Node, needle string, opts SearchOptions) bool {
	contains := func(s string) bool {
		if !opts.CaseSensitive {
			s = strings.ToLower(s)
		}
		return strings.Contains(s, needle)
	}
	if opts.MatchName && contains(n.Name) {
		return true
	}
	return opts.MatchNote && n.Note != "" && contains(n.Note)
}

// TreeNode is a node plus its materialized children.
type TreeNode struct {
	models.Node
	Children []*TreeNode `json:"children,omitempty"`
}

// Tree bundles a materialized subtree with snapshot provenance.
type Tree struct {
	Root     *TreeNode     `json:"node"`
	Snapshot snapshot.Meta `json:"snapshot"`
}

// GetWithChildren materializes a node and depth levels of descendants
// from the cached snapshot. depth must be in [0, MaxDepth]. Children
// appear in snapshot order.
func (s *Service) GetWithChildren(ctx context.Context, id string, depth int) (*Tree, error) {
	if id == "" {
		return nil, &apperr.ValidationError{Msg: "id is required"}
	}
	if err := validation.Validate(depth, validation.Min(0), validation.Max(MaxDepth)); err != nil {
		return nil, &apperr.ValidationError{
			Msg: fmt.Sprintf("depth must be between 0 and %d", MaxDepth),
		}
	}

	nodes, meta, err := s.cache.Get(ctx, false)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Node, len(nodes))
	children := make(map[string][]models.Node)
	for _, n := range nodes {
		byID[n.ID] = n
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n)
		}
	}

	root, ok := byID[id]
	if !ok {
		return nil, &apperr.NotFoundError{ID: id}
	}
	return &Tree{Root: expand(root, depth, children), Snapshot: meta}, nil
}

// expand attaches direct children recursively. Recursion is bounded
// only by the remaining depth, never by visited bookkeeping, so a
// snapshot with a parent cycle still terminates.
func expand(n models.Node, depth int, children map[string][]models.Node) *TreeNode {
	t := &TreeNode{Node: n.Clone()}
	if depth <= 0 {
		return t
	}
	for _, child := range children[n.ID] {
		t.Children = append(t.Children, expand(child, depth-1, children))
	}
	return t
}

// ListChildren returns the direct children of parentID from the cached
// snapshot, in snapshot order. An empty parentID lists the root-level
// nodes. force bypasses the freshness window.
func (s *Service) ListChildren(ctx context.Context, parentID string, force bool) (*NodeList, error) {
	nodes, meta, err := s.cache.Get(ctx, force)
	if err != nil {
		return nil, err
	}

	out := []models.Node{}
	if parentID == "" {
		for _, n := range nodes {
			if n.ParentID == nil {
				out = append(out, n)
			}
		}
		return &NodeList{Nodes: out, Snapshot: meta}, nil
	}

	found := false
	for _, n := range nodes {
		if n.ID == parentID {
			found = true
		}
		if n.ParentID != nil && *n.ParentID == parentID {
			out = append(out, n)
		}
	}
	if !found {
		return nil, &apperr.NotFoundError{ID: parentID}
	}
	return &NodeList{Nodes: out, Snapshot: meta}, nil
}

// CreateNode forwards a create to the remote service and invalidates
// the snapshot once it confirms. A failed create leaves the cache
// untouched.
func (s *Service) CreateNode(ctx context.Context, req remote.CreateRequest) (*models.Node, error) {
	if req.ParentID == "" {
		return nil, &apperr.ValidationError{Msg: "parent_id is required"}
	}
	if req.Name == "" {
		return nil, &apperr.ValidationError{Msg: "name is required"}
	}
	if req.LayoutMode != nil && !models.ValidLayout(*req.LayoutMode) {
		return nil, &apperr.ValidationError{Msg: fmt.Sprintf("unknown layout mode: %s", *req.LayoutMode)}
	}

	n, err := s.remote.CreateNode(ctx, req)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return n, nil
}

// UpdateNode forwards an update and invalidates on success.
func (s *Service) UpdateNode(ctx context.Context, id string, req remote.UpdateRequest) (*models.Node, error) {
	if id == "" {
		return nil, &apperr.ValidationError{Msg: "id is required"}
	}
	if req.Name == nil && req.Note == nil && req.LayoutMode == nil {
		return nil, &apperr.ValidationError{Msg: "nothing to update"}
	}
	if req.LayoutMode != nil && !models.ValidLayout(*req.LayoutMode) {
		return nil, &apperr.ValidationError{Msg: fmt.Sprintf("unknown layout mode: %s", *req.LayoutMode)}
	}

	n, err := s.remote.UpdateNode(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return n, nil
}

// DeleteNode forwards a delete and invalidates on success.
func (s *Service) DeleteNode(ctx context.Context, id string) error {
	if id == "" {
		return &apperr.ValidationError{Msg: "id is required"}
	}
	if err := s.remote.DeleteNode(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// MoveNode forwards a move and invalidates on success. When
// req.Priority is nil the remote service picks the position.
func (s *Service) MoveNode(ctx context.Context, id string, req remote.MoveRequest) (*models.Node, error) {
	if id == "" {
		return nil, &apperr.ValidationError{Msg: "id is required"}
	}
	if req.ParentID == "" {
		return nil, &apperr.ValidationError{Msg: "parent_id is required"}
	}

	n, err := s.remote.MoveNode(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return n, nil
}

// CompleteNode marks a node completed and invalidates on success.
func (s *Service) CompleteNode(ctx context.Context, id string) (*models.Node, error) {
	if id == "" {
		return nil, &apperr.ValidationError{Msg: "id is required"}
	}
	n, err := s.remote.CompleteNode(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return n, nil
}

// UncompleteNode clears the completion flag and invalidates on success.
func (s *Service) UncompleteNode(ctx context.Context, id string) (*models.Node, error) {
	if id == "" {
		return nil, &apperr.ValidationError{Msg: "id is required"}
	}
	n, err := s.remote.UncompleteNode(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return n, nil
}

// ListTargets passes through the remote targets listing. Targets are
// not part of the outline snapshot and are never cached.
func (s *Service) ListTargets(ctx context.Context) ([]models.Target, error) {
	targets, err := s.remote.ListTargets(ctx)
	if err != nil {
		return nil, err
	}
	if targets == nil {
		targets = []models.Target{}
	}
	return targets, nil
}
