package identitysdk

import (
	"context"
	"net/http"
)

// Register creates the local profile of the session's account.
func (s *Session) Register(ctx context.Context, req RegisterUserRequest) (*UserResponse, error) {
	return doJSON[UserResponse](ctx, s, http.MethodPost, "/v1/users/me", req, http.StatusCreated)
}

func (s *Session) GetMe(ctx context.Context) (*UserResponse, error) {
	return doJSON[UserResponse](ctx, s, http.MethodGet, "/v1/users/me", nil, http.StatusOK)
}

func (s *Session) UpdateMe(ctx context.Context, req UpdateProfileRequest) (*UserResponse, error) {
	return doJSON[UserResponse](ctx, s, http.MethodPatch, "/v1/users/me", req, http.StatusOK)
}

// DeleteMe removes the profile and leaves every workspace. It fails while
// the caller is the last admin of an active workspace.
func (s *Session) DeleteMe(ctx context.Context) error {
	return s.doNoContent(ctx, http.MethodDelete, "/v1/users/me")
}

// doJSON sends payload and decodes a T from a response with wantStatus.
func doJSON[T any](ctx context.Context, s *Session, method, path string, payload any, wantStatus int) (*T, error) {
	resp, err := s.doAuthRequest(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	var out T
	if err := decodeJSON(resp, &out, wantStatus); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) doNoContent(ctx context.Context, method, path string) error {
	resp, err := s.doAuthRequest(ctx, method, path, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
