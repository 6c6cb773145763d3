package identitysdk

import (
	"context"
	"net/http"
	"net/url"
)

func memberPath(workspaceID, userID string) string {
	return workspacePath(workspaceID) + "/members/" + url.PathEscape(userID)
}

func (s *Session) ListMembers(ctx context.Context, workspaceID string) ([]MemberResponse, error) {
	out, err := doJSON[ListMembersResponse](ctx, s, http.MethodGet, workspacePath(workspaceID)+"/members", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Members, nil
}

// ChangeMemberRole sets the role of userID. Admin only.
func (s *Session) ChangeMemberRole(ctx context.Context, workspaceID, userID, role string) (*MemberResponse, error) {
	return doJSON[MemberResponse](ctx, s, http.MethodPatch, memberPath(workspaceID, userID), ChangeRoleRequest{Role: role}, http.StatusOK)
}

func (s *Session) ActivateMember(ctx context.Context, workspaceID, userID string) (*MemberResponse, error) {
	return doJSON[MemberResponse](ctx, s, http.MethodPost, memberPath(workspaceID, userID)+"/activate", nil, http.StatusOK)
}

func (s *Session) DeactivateMember(ctx context.Context, workspaceID, userID string) (*MemberResponse, error) {
	return doJSON[MemberResponse](ctx, s, http.MethodPost, memberPath(workspaceID, userID)+"/deactivate", nil, http.StatusOK)
}

// LeaveWorkspace deactivates the caller's own membership.
func (s *Session) LeaveWorkspace(ctx context.Context, workspaceID string) error {
	return s.doNoContent(ctx, http.MethodDelete, workspacePath(workspaceID)+"/members/me")
}
