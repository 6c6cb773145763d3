package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenancy/pkg/httpx"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// subject returns the caller's application user id. Routes behind
// httpx.Authenticate always have one; the check guards misconfigured chains.
func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	sub, ok := httpx.SubjectFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, identitysdk.ErrorCodeInvalidToken, "authentication required")
		return "", false
	}
	return sub, true
}

// pathID parses the named path value as an identifier.
func pathID(w http.ResponseWriter, r *http.Request, name string) (idx.ID, bool) {
	id, err := idx.Parse(r.PathValue(name))
	if err != nil {
		identitysdk.ErrInvalidRequest.WithDescription("invalid " + name).WriteError(w)
		return idx.Zero, false
	}
	return id, true
}

// decode reads a JSON body into dst, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		identitysdk.ErrInvalidRequest.WithDescription(err.Error()).WriteError(w)
		return false
	}
	return true
}
