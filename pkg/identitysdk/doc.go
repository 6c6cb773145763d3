/*
Package identitysdk is the client SDK of the identity service.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (health checks) and session creation
  - Session: workspace operations on behalf of one identity-provider account

The service does not issue tokens. A Session obtains its bearer token from a
TokenSource, typically backed by the identity provider's own SDK:

	client := identitysdk.NewSDKClient("https://identity.example.com")
	session := client.NewSession(identitysdk.StaticToken(accessToken))

	me, err := session.Register(ctx, identitysdk.RegisterUserRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})

	ws, err := session.CreateWorkspace(ctx, identitysdk.CreateWorkspaceRequest{Name: "Engine Room"})

	inv, err := session.Invite(ctx, ws.ID, identitysdk.InviteRequest{
		Email: "grace@example.com",
		Role:  identitysdk.RoleMember,
	})

The invitation token in inv.Token is only returned once. The invitee redeems
it with AcceptInvitation from their own session.

# Errors

Non-2xx responses are returned as *APIError. Use errors.As to inspect the
status code and error code:

	var apiErr *identitysdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == identitysdk.ErrorCodeWorkspaceFull {
		// ...
	}

The same type is used by the server to write error responses, so the JSON
shape {"error", "error_description"} is shared by both sides.
*/
package identitysdk
