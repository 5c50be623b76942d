package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/outline"
	"github.com/starford/laguz/internal/remote"
)

// Handler holds API route handlers.
type Handler struct {
	svc *outline.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *outline.Service) *Handler {
	return &Handler{svc: svc}
}

// parseBool reads a boolean query parameter, defaulting when absent or
// unparseable.
func parseBool(q string, def bool) bool {
	if q == "" {
		return def
	}
	v, err := strconv.ParseBool(q)
	if err != nil {
		return def
	}
	return v
}

// Outline handles GET /api/outline. ?force=true bypasses the
// freshness window.
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	force := parseBool(r.URL.Query().Get("force"), false)
	list, err := h.svc.Snapshot(r.Context(), force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Search handles GET /api/search.
//
// Query parameters: q (required), name/note (match toggles, default
// true), case_sensitive (default false), limit (default 100).
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}

	opts := outline.DefaultSearchOptions()
	opts.MatchName = parseBool(q.Get("name"), true)
	opts.MatchNote = parseBool(q.Get("note"), true)
	opts.CaseSensitive = parseBool(q.Get("case_sensitive"), false)
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		opts.MaxResults = limit
	}

	list, err := h.svc.Search(r.Context(), query, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListNodes handles GET /api/nodes. ?parent_id selects a subtree
// root; absent means root-level nodes.
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	force := parseBool(q.Get("force"), false)
	list, err := h.svc.ListChildren(r.Context(), q.Get("parent_id"), force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetNode handles GET /api/nodes/{id}. ?depth attaches that many
// levels of descendants (0 to 5, default 0).
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	depth := 0
	if raw := r.URL.Query().Get("depth"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("depth must be an integer"))
			return
		}
		depth = v
	}

	tree, err := h.svc.GetWithChildren(r.Context(), id, depth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// CreateNode handles POST /api/nodes.
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	node, err := h.svc.CreateNode(r.Context(), remote.CreateRequest{
		ParentID:   req.ParentID,
		Name:       req.Name,
		Note:       req.Note,
		LayoutMode: req.LayoutMode,
		Priority:   req.Priority,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// UpdateNode handles PATCH /api/nodes/{id}.
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	node, err := h.svc.UpdateNode(r.Context(), id, remote.UpdateRequest{
		Name:       req.Name,
		Note:       req.Note,
		LayoutMode: req.LayoutMode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /api/nodes/{id}.
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteNode(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNode handles POST /api/nodes/{id}/move.
func (h *Handler) MoveNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id := chi.URLParam(r, "id")

	var req MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	node, err := h.svc.MoveNode(r.Context(), id, remote.MoveRequest{
		ParentID: req.ParentID,
		Priority: req.Priority,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// CompleteNode handles POST /api/nodes/{id}/complete.
func (h *Handler) CompleteNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.svc.CompleteNode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// UncompleteNode handles POST /api/nodes/{id}/uncomplete.
func (h *Handler) UncompleteNode(w http.ResponseWriter, r *http.Request) {
	node, err := h.svc.UncompleteNode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// ListTargets handles GET /api/targets.
func (h *Handler) ListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := h.svc.ListTargets(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"targets": targets,
	})
}
