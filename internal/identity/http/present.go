package http

import (
	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
)

func toUserResponse(u *domain.User) identitysdk.UserResponse {
	return identitysdk.UserResponse{
		ID:                u.ID().String(),
		ApplicationUserID: u.ApplicationUserID(),
		FullName:          u.FullName().String(),
		Email:             u.Email().String(),
		CreatedAt:         u.CreatedAt(),
		UpdatedAt:         u.UpdatedAt(),
	}
}

func toWorkspaceResponse(ws *domain.Workspace, withMembers bool) identitysdk.WorkspaceResponse {
	resp := identitysdk.WorkspaceResponse{
		ID:        ws.ID().String(),
		Name:      ws.Name().String(),
		MaxUsers:  ws.MaxUsers(),
		IsActive:  ws.IsActive(),
		CreatedAt: ws.CreatedAt(),
		UpdatedAt: ws.UpdatedAt(),
	}
	if withMembers {
		resp.Members = toMemberResponses(ws.Memberships())
	}
	return resp
}

func toMemberResponse(m *domain.UserWorkspace) identitysdk.MemberResponse {
	return identitysdk.MemberResponse{
		ID:          m.ID().String(),
		UserID:      m.UserID().String(),
		WorkspaceID: m.WorkspaceID().String(),
		Role:        m.Role().String(),
		IsActive:    m.IsActive(),
		CreatedAt:   m.CreatedAt(),
		UpdatedAt:   m.UpdatedAt(),
	}
}

func toMemberResponses(ms []*domain.UserWorkspace) []identitysdk.MemberResponse {
	out := make([]identitysdk.MemberResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMemberResponse(m))
	}
	return out
}

func toInvitationResponse(inv *domain.WorkspaceInvitation) identitysdk.InvitationResponse {
	return identitysdk.InvitationResponse{
		ID:           inv.ID().String(),
		WorkspaceID:  inv.WorkspaceID().String(),
		InviteeEmail: inv.InviteeEmail().String(),
		Role:         inv.Role().String(),
		Status:       inv.Status().String(),
		ExpiresAt:    inv.ExpiresAt(),
		CreatedAt:    inv.CreatedAt(),
	}
}

func toInvitationResponses(invs []*domain.WorkspaceInvitation) []identitysdk.InvitationResponse {
	out := make([]identitysdk.InvitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvitationResponse(inv))
	}
	return out
}
