package api

import (
	"github.com/starford/laguz/internal/outline"
)

// CreateNodeRequest is the request body for creating a node. Optional
// fields stay pointers so absence is distinguishable from zero values.
type CreateNodeRequest struct {
	ParentID   string  `json:"parent_id"`
	Name       string  `json:"name"`
	Note       *string `json:"note,omitempty"`
	LayoutMode *string `json:"layout_mode,omitempty"`
	Priority   *int    `json:"priority,omitempty"`
}

// UpdateNodeRequest is the request body for updating a node.
type UpdateNodeRequest struct {
	Name       *string `json:"name,omitempty"`
	Note       *string `json:"note,omitempty"`
	LayoutMode *string `json:"layout_mode,omitempty"`
}

// MoveNodeRequest is the request body for moving a node. A nil
// Priority lets the remote service append at its default position.
type MoveNodeRequest struct {
	ParentID string `json:"parent_id"`
	Priority *int   `json:"priority,omitempty"`
}

// NodeList is the list response type (aliased from the domain layer).
// It carries the snapshot provenance so callers can see staleness.
type NodeList = outline.NodeList

// Tree is the hierarchy response type (aliased from the domain layer).
type Tree = outline.Tree
