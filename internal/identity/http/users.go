package http

import (
	"net/http"

	"github.com/aussiebroadwan/tenancy/internal/identity/service"
	"github.com/aussiebroadwan/tenancy/pkg/httpx"
	"github.com/aussiebroadwan/tenancy/pkg/identitysdk"
)

type UserHandler struct {
	UserService *service.UserService
}

// Register handles POST /v1/users/me. Missing body fields are taken from the
// token's name and email claims.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	var req identitysdk.RegisterUserRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok {
		if req.FullName == "" {
			req.FullName = claims.Name
		}
		if req.Email == "" {
			req.Email = claims.Email
		}
	}

	user, err := h.UserService.Register(r.Context(), sub, req.FullName, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// Get handles GET /v1/users/me.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.GetByApplicationUserID(r.Context(), sub)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// Update handles PATCH /v1/users/me.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	var req identitysdk.UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}
	if req.FullName == nil && req.Email == nil {
		identitysdk.ErrInvalidRequest.WithDescription("nothing to update").WriteError(w)
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), sub, service.ProfileUpdate{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// Delete handles DELETE /v1/users/me.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	if err := h.UserService.Delete(r.Context(), sub); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
