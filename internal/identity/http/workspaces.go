package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenancy/internal/identity/service"
	"github.com/aussiebroadwan/tenancy/pkg/httpx"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
)

type WorkspaceHandler struct {
	WorkspaceService *service.WorkspaceService
}

// Create handles POST /v1/workspaces.
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	var req identitysdk.CreateWorkspaceRequest
	if !decode(w, r, &req) {
		return
	}

	ws, err := h.WorkspaceService.Create(r.Context(), sub, req.Name, req.MaxUsers)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toWorkspaceResponse(ws, true))
}

// List handles GET /v1/workspaces.
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	list, err := h.WorkspaceService.ListForUser(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := identitysdk.ListWorkspacesResponse{Workspaces: make([]identitysdk.WorkspaceResponse, 0, len(list))}
	for _, ws := range list {
		resp.Workspaces = append(resp.Workspaces, toWorkspaceResponse(ws, false))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /v1/workspaces/{id}.
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ws, err := h.WorkspaceService.Get(r.Context(), sub, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toWorkspaceResponse(ws, true))
}

// Rename handles PATCH /v1/workspaces/{id}.
func (h *WorkspaceHandler) Rename(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req identitysdk.RenameWorkspaceRequest
	if !decode(w, r, &req) {
		return
	}

	ws, err := h.WorkspaceService.Rename(r.Context(), sub, id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toWorkspaceResponse(ws, false))
}

// Deactivate handles POST /v1/workspaces/{id}/deactivate.
func (h *WorkspaceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ws, err := h.WorkspaceService.Deactivate(r.Context(), sub, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toWorkspaceResponse(ws, false))
}
