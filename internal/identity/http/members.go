package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/service"
	"github.com/aussiebroadwan/tenancy/pkg/httpx"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

type MemberHandler struct {
	MembershipService *service.MembershipService
}

// List handles GET /v1/workspaces/{id}/members.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	members, err := h.MembershipService.ListMembers(r.Context(), sub, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, identitysdk.ListMembersResponse{Members: toMemberResponses(members)})
}

// ChangeRole handles PATCH /v1/workspaces/{id}/members/{userID}.
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req identitysdk.ChangeRoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.mutate(w, r, func(ctx context.Context, sub string, wsID, userID idx.ID) (*domain.UserWorkspace, error) {
		return h.MembershipService.ChangeRole(ctx, sub, wsID, userID, role)
	})
}

// Activate handles POST /v1/workspaces/{id}/members/{userID}/activate.
func (h *MemberHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.MembershipService.Activate)
}

// Deactivate handles POST /v1/workspaces/{id}/members/{userID}/deactivate.
func (h *MemberHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.MembershipService.Deactivate)
}

// Leave handles DELETE /v1/workspaces/{id}/members/me.
func (h *MemberHandler) Leave(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.MembershipService.Leave(r.Context(), sub, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type memberMutation func(ctx context.Context, sub string, workspaceID, userID idx.ID) (*domain.UserWorkspace, error)

func (h *MemberHandler) mutate(w http.ResponseWriter, r *http.Request, fn memberMutation) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	m, err := fn(r.Context(), sub, wsID, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMemberResponse(m))
}
