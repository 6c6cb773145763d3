package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/service"
	"github.com/aussiebroadwan/tenancy/pkg/httpx"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
)

type InvitationHandler struct {
	InvitationService *service.InvitationService
}

// Invite handles POST /v1/workspaces/{id}/invitations. The response is the
// only place the redemption token is ever shown.
func (h *InvitationHandler) Invite(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req identitysdk.InviteRequest
	if !decode(w, r, &req) {
		return
	}
	role := domain.RoleMember
	if req.Role != "" {
		var err error
		if role, err = domain.ParseRole(req.Role); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	inv, token, err := h.InvitationService.Invite(r.Context(), sub, wsID, service.InviteRequest{
		Email:         req.Email,
		Role:          role,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := toInvitationResponse(inv)
	resp.Token = token
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// ListForWorkspace handles GET /v1/workspaces/{id}/invitations.
func (h *InvitationHandler) ListForWorkspace(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	wsID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	invs, err := h.InvitationService.ListPending(r.Context(), sub, wsID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, identitysdk.ListInvitationsResponse{Invitations: toInvitationResponses(invs)})
}

// ListMine handles GET /v1/invitations.
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	invs, err := h.InvitationService.ListForInvitee(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, identitysdk.ListInvitationsResponse{Invitations: toInvitationResponses(invs)})
}

// Accept handles POST /v1/invitations/accept.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	var req identitysdk.AcceptInvitationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Token == "" {
		identitysdk.ErrInvalidRequest.WithDescription("token is required").WriteError(w)
		return
	}

	m, err := h.InvitationService.Accept(r.Context(), sub, req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMemberResponse(m))
}

// Reject handles POST /v1/invitations/{id}/reject.
func (h *InvitationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	inv, err := h.InvitationService.Reject(r.Context(), sub, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInvitationResponse(inv))
}
