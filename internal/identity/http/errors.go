package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/service"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

// writeServiceError maps service and domain errors to API errors. Anything
// unrecognised is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := classify(err)
	if apiErr == nil {
		slogx.FromContext(r.Context()).Error("request failed", slogx.Err(err))
		identitysdk.ErrServerError.WriteError(w)
		return
	}
	apiErr.WriteError(w)
}

func classify(err error) *identitysdk.APIError {
	switch {
	case domain.IsRuleViolation(err):
		return identitysdk.ErrRuleViolation.WithDescription(err.Error())

	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrWorkspaceNotFound),
		errors.Is(err, service.ErrMembershipNotFound),
		errors.Is(err, service.ErrInvitationNotFound):
		return identitysdk.ErrNotFound.WithDescription(err.Error())

	case errors.Is(err, service.ErrWorkspaceFull):
		return identitysdk.ErrWorkspaceFull
	case errors.Is(err, service.ErrLastAdmin):
		return identitysdk.ErrLastAdmin

	case errors.Is(err, service.ErrUserAlreadyRegistered),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrInvitationPending),
		errors.Is(err, service.ErrWorkspaceInactive):
		return identitysdk.ErrConflict.WithDescription(err.Error())

	case errors.Is(err, service.ErrNotWorkspaceAdmin),
		errors.Is(err, service.ErrInviteeMismatch):
		return identitysdk.ErrForbidden.WithDescription(err.Error())

	default:
		return nil
	}
}
