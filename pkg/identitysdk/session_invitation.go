package identitysdk

import (
	"context"
	"net/http"
	"net/url"
)

// Invite creates an invitation. The returned Token is shown only once.
func (s *Session) Invite(ctx context.Context, workspaceID string, req InviteRequest) (*InvitationResponse, error) {
	return doJSON[InvitationResponse](ctx, s, http.MethodPost, workspacePath(workspaceID)+"/invitations", req, http.StatusCreated)
}

// ListWorkspaceInvitations returns pending invitations. Admin only.
func (s *Session) ListWorkspaceInvitations(ctx context.Context, workspaceID string) ([]InvitationResponse, error) {
	out, err := doJSON[ListInvitationsResponse](ctx, s, http.MethodGet, workspacePath(workspaceID)+"/invitations", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

// ListMyInvitations returns unexpired invitations addressed to the caller.
func (s *Session) ListMyInvitations(ctx context.Context) ([]InvitationResponse, error) {
	out, err := doJSON[ListInvitationsResponse](ctx, s, http.MethodGet, "/v1/invitations", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

// AcceptInvitation redeems token and returns the resulting membership.
func (s *Session) AcceptInvitation(ctx context.Context, token string) (*MemberResponse, error) {
	return doJSON[MemberResponse](ctx, s, http.MethodPost, "/v1/invitations/accept", AcceptInvitationRequest{Token: token}, http.StatusOK)
}

func (s *Session) RejectInvitation(ctx context.Context, invitationID string) (*InvitationResponse, error) {
	return doJSON[InvitationResponse](ctx, s, http.MethodPost, "/v1/invitations/"+url.PathEscape(invitationID)+"/reject", nil, http.StatusOK)
}
