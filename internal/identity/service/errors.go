package service

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyRegistered = errors.New("user already registered")
	ErrEmailTaken            = errors.New("email address is already in use")

	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrWorkspaceInactive = errors.New("workspace is inactive")
	ErrWorkspaceFull     = errors.New("workspace has reached its member limit")
	ErrNotWorkspaceAdmin = errors.New("caller is not an admin of the workspace")

	ErrMembershipNotFound = errors.New("membership not found")
	ErrAlreadyMember      = errors.New("user is already an active member of the workspace")
	ErrLastAdmin          = errors.New("workspace must keep at least one active admin")

	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationPending  = errors.New("a pending invitation already exists for this email")
	ErrInviteeMismatch    = errors.New("invitation was issued to a different email address")
)
