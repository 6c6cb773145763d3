package identitysdk

import (
	"context"
	"net/http"
	"net/url"
)

func workspacePath(id string) string {
	return "/v1/workspaces/" + url.PathEscape(id)
}

// CreateWorkspace creates a workspace with the caller as its admin.
func (s *Session) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (*WorkspaceResponse, error) {
	return doJSON[WorkspaceResponse](ctx, s, http.MethodPost, "/v1/workspaces", req, http.StatusCreated)
}

// ListWorkspaces returns the workspaces the caller is an active member of.
func (s *Session) ListWorkspaces(ctx context.Context) ([]WorkspaceResponse, error) {
	out, err := doJSON[ListWorkspacesResponse](ctx, s, http.MethodGet, "/v1/workspaces", nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return out.Workspaces, nil
}

// GetWorkspace returns a workspace together with its members.
func (s *Session) GetWorkspace(ctx context.Context, id string) (*WorkspaceResponse, error) {
	return doJSON[WorkspaceResponse](ctx, s, http.MethodGet, workspacePath(id), nil, http.StatusOK)
}

func (s *Session) RenameWorkspace(ctx context.Context, id, name string) (*WorkspaceResponse, error) {
	return doJSON[WorkspaceResponse](ctx, s, http.MethodPatch, workspacePath(id), RenameWorkspaceRequest{Name: name}, http.StatusOK)
}

func (s *Session) DeactivateWorkspace(ctx context.Context, id string) (*WorkspaceResponse, error) {
	return doJSON[WorkspaceResponse](ctx, s, http.MethodPost, workspacePath(id)+"/deactivate", nil, http.StatusOK)
}
