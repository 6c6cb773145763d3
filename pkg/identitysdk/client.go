package identitysdk

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the identity service.
// It provides access to unauthenticated operations and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client with a 10 second request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// TokenSource returns a valid access token issued by the identity provider.
// It is called once per request, so implementations may refresh.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) {
		if token == "" {
			return "", errors.New("identitysdk: empty access token")
		}
		return token, nil
	}
}

// NewSession returns a Session authenticating every request with tokens.
func (c *SDKClient) NewSession(tokens TokenSource) *Session {
	return &Session{client: c, tokens: tokens}
}

// Session performs operations on behalf of the account its tokens belong to.
// It is safe for concurrent use when its TokenSource is.
type Session struct {
	client *SDKClient
	tokens TokenSource
}
