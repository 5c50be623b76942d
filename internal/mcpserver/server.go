// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the outline bridge tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/outline"
	"github.com/starford/laguz/internal/remote"
)

// Server wraps the MCP server with the outline tools.
type Server struct {
	mcp *server.MCPServer
	svc *outline.Service
}

// New creates a new MCP server with all outline tools registered.
func New(svc *outline.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_nodes",
		mcp.WithDescription("Substring search over node names and notes. "+
			"Served from a cached snapshot of the outline, so results may lag "+
			"recent edits by up to the freshness window."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring to search for")),
		mcp.WithBoolean("match_name", mcp.Description("Match against node names (default true)")),
		mcp.WithBoolean("match_note", mcp.Description("Match against node notes (default true)")),
		mcp.WithBoolean("case_sensitive", mcp.Description("Case-sensitive matching (default false)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 100)")),
	), s.searchNodes)

	s.mcp.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get a node and optionally its descendants from the cached outline."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithNumber("depth", mcp.Description("Levels of children to attach, 0 to 5 (default 0)")),
	), s.getNode)

	s.mcp.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List the direct children of a node, or the root-level nodes when parent_id is omitted."),
		mcp.WithString("parent_id", mcp.Description("Parent node id (empty for root level)")),
	), s.listNodes)

	s.mcp.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Create a node under a parent. Omit priority to append at the end."),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("Parent node or target id")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display text")),
		mcp.WithString("note", mcp.Description("Optional note text")),
		mcp.WithString("layout_mode", mcp.Description("Optional layout: bullet, todo, h1, h2, h3, code-block, quote-block")),
		mcp.WithNumber("priority", mcp.Description("Optional position among siblings")),
	), s.createNode)

	s.mcp.AddTool(mcp.NewTool("update_node",
		mcp.WithDescription("Update a node's name, note, or layout mode. Only the provided fields change."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("name", mcp.Description("New display text")),
		mcp.WithString("note", mcp.Description("New note text")),
		mcp.WithString("layout_mode", mcp.Description("New layout mode")),
	), s.updateNode)

	s.mcp.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node and all of its descendants."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.deleteNode)

	s.mcp.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move a node under a new parent. Omit priority to append at the end."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("New parent id")),
		mcp.WithNumber("priority", mcp.Description("Optional position among siblings")),
	), s.moveNode)

	s.mcp.AddTool(mcp.NewTool("complete_node",
		mcp.WithDescription("Mark a node as completed."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.completeNode)

	s.mcp.AddTool(mcp.NewTool("uncomplete_node",
		mcp.WithDescription("Clear a node's completed flag."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.uncompleteNode)

	s.mcp.AddTool(mcp.NewTool("list_targets",
		mcp.WithDescription("List the locations new nodes can be created under."),
	), s.listTargets)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Optional-argument helpers over the raw arguments map.

func optString(req mcp.CallToolRequest, key string) *string {
	if v, ok := req.GetArguments()[key].(string); ok {
		return &v
	}
	return nil
}

func optBool(req mcp.CallToolRequest, key string, def bool) bool {
	if v, ok := req.GetArguments()[key].(bool); ok {
		return v
	}
	return def
}

func optInt(req mcp.CallToolRequest, key string) *int {
	if v, ok := req.GetArguments()[key].(float64); ok {
		n := int(v)
		return &n
	}
	return nil
}

func resultJSON(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := outline.DefaultSearchOptions()
	opts.MatchName = optBool(req, "match_name", true)
	opts.MatchNote = optBool(req, "match_note", true)
	opts.CaseSensitive = optBool(req, "case_sensitive", false)
	if limit := optInt(req, "limit"); limit != nil && *limit > 0 {
		opts.MaxResults = *limit
	}

	list, err := s.svc.Search(ctx, query, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(list), nil
}

func (s *Server) getNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	depth := 0
	if d := optInt(req, "depth"); d != nil {
		depth = *d
	}

	tree, err := s.svc.GetWithChildren(ctx, id, depth)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(tree), nil
}

func (s *Server) listNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID := ""
	if p := optString(req, "parent_id"); p != nil {
		parentID = *p
	}

	list, err := s.svc.ListChildren(ctx, parentID, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(list), nil
}

func (s *Server) createNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID, err := req.RequireString("parent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	node, err := s.svc.CreateNode(ctx, remote.CreateRequest{
		ParentID:   parentID,
		Name:       name,
		Note:       optString(req, "note"),
		LayoutMode: optString(req, "layout_mode"),
		Priority:   optInt(req, "priority"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(node), nil
}

func (s *Server) updateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	node, err := s.svc.UpdateNode(ctx, id, remote.UpdateRequest{
		Name:       optString(req, "name"),
		Note:       optString(req, "note"),
		LayoutMode: optString(req, "layout_mode"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(node), nil
}

func (s *Server) deleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteNode(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("deleted: " + id), nil
}

func (s *Server) moveNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parentID, err := req.RequireString("parent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	node, err := s.svc.MoveNode(ctx, id, remote.MoveRequest{
		ParentID: parentID,
		Priority: optInt(req, "priority"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(node), nil
}

func (s *Server) completeNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, err := s.svc.CompleteNode(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(node), nil
}

func (s *Server) uncompleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	node, err := s.svc.UncompleteNode(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(node), nil
}

func (s *Server) listTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	targets, err := s.svc.ListTargets(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return resultJSON(map[string]any{"targets": targets}), nil
}
