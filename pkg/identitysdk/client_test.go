package identitysdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
)

func TestSession_SendsBearerAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/workspaces/ws-1/invitations", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req identitysdk.InviteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "grace@example.com", req.Email)
		require.Equal(t, identitysdk.RoleMember, req.Role)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(identitysdk.InvitationResponse{
			ID:     "inv-1",
			Status: identitysdk.InvitationPending,
			Token:  "secret",
		})
	}))
	defer srv.Close()

	session := identitysdk.NewSDKClient(srv.URL + "/").NewSession(identitysdk.StaticToken("tok-123"))
	inv, err := session.Invite(context.Background(), "ws-1", identitysdk.InviteRequest{
		Email: "grace@example.com",
		Role:  identitysdk.RoleMember,
	})
	require.NoError(t, err)
	require.Equal(t, "inv-1", inv.ID)
	require.Equal(t, "secret", inv.Token)
}

func TestSession_ErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/invitations/accept":
			identitysdk.ErrWorkspaceFull.WriteError(w)
		case "/v1/users/me":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	session := identitysdk.NewSDKClient(srv.URL).NewSession(identitysdk.StaticToken("tok"))

	t.Run("typed error body", func(t *testing.T) {
		_, err := session.AcceptInvitation(ctx, "token")
		var apiErr *identitysdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusConflict, apiErr.StatusCode)
		require.Equal(t, identitysdk.ErrorCodeWorkspaceFull, apiErr.Code)
	})

	t.Run("bare status", func(t *testing.T) {
		_, err := session.GetMe(ctx)
		var apiErr *identitysdk.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		require.Equal(t, identitysdk.ErrorCodeServerError, apiErr.Code)
	})

	t.Run("no content", func(t *testing.T) {
		require.NoError(t, session.LeaveWorkspace(ctx, "ws-1"))
	})

	t.Run("empty token never reaches the server", func(t *testing.T) {
		empty := identitysdk.NewSDKClient(srv.URL).NewSession(identitysdk.StaticToken(""))
		_, err := empty.GetMe(ctx)
		require.Error(t, err)
	})
}

func TestSDKClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/livez", r.URL.Path)
		_ = json.NewEncoder(w).Encode(identitysdk.HealthResponse{Status: "ok", Version: "test"})
	}))
	defer srv.Close()

	health, err := identitysdk.NewSDKClient(srv.URL).GetLiveness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)
}
