// Package models defines the domain types for Laguz.
package models

// Layout modes accepted by the outline service for a node.
const (
	LayoutBullet = "bullet"
	LayoutTodo   = "todo"
	LayoutH1     = "h1"
	LayoutH2     = "h2"
	LayoutH3     = "h3"
	LayoutCode   = "code-block"
	LayoutQuote  = "quote-block"
)

// ValidLayout reports whether mode names a known layout mode.
func ValidLayout(mode string) bool {
	switch mode {
	case LayoutBullet, LayoutTodo, LayoutH1, LayoutH2, LayoutH3, LayoutCode, LayoutQuote:
		return true
	}
	return false
}

// Node is one entry in the remote outline. A nil ParentID marks a
// root-level node.
type Node struct {
	ID         string  `json:"id"`
	ParentID   *string `json:"parent_id,omitempty"`
	Name       string  `json:"name"`
	Note       string  `json:"note,omitempty"`
	Priority   *int    `json:"priority,omitempty"`
	LayoutMode string  `json:"layout_mode,omitempty"`
	Completed  bool    `json:"completed"`
}

// Clone returns a copy of the node that shares no pointers with the
// original. The snapshot cache hands out clones so callers can never
// reach into the cached entry.
func (n Node) Clone() Node {
	out := n
	if n.ParentID != nil {
		v := *n.ParentID
		out.ParentID = &v
	}
	if n.Priority != nil {
		v := *n.Priority
		out.Priority = &v
	}
	return out
}

// Target is a location the remote service allows new nodes to be
// created under.
type Target struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
