package domain

import (
	"time"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// MaxInvitationDays caps how far ahead an invitation may expire.
const MaxInvitationDays = 7

// WorkspaceInvitation offers an email address a role in a workspace until
// ExpiresAt.
type WorkspaceInvitation struct {
	EventEntity

	workspaceID  idx.ID
	inviteeEmail Email
	role         Role
	status       InvitationStatus
	expiresAt    time.Time
	tokenHash    string
}

// WorkspaceInvitationRecord is the persisted state of a WorkspaceInvitation.
type WorkspaceInvitationRecord struct {
	EntityRecord
	WorkspaceID  idx.ID
	InviteeEmail Email
	Role         Role
	Status       InvitationStatus
	ExpiresAt    time.Time
	TokenHash    string
}

// NewWorkspaceInvitation creates a pending invitation expiring expiresInDays
// from now. The day cap is checked before the workspace id. Zero or negative
// day counts are accepted and yield an invitation that is already expired.
func NewWorkspaceInvitation(
	workspaceID idx.ID,
	inviteeEmail Email,
	role Role,
	expiresInDays int,
	opts ...Option,
) (*WorkspaceInvitation, error) {
	if expiresInDays > MaxInvitationDays {
		return nil, violation(
			"invitation cannot expire in %d days, the maximum is %d days",
			expiresInDays, MaxInvitationDays,
		)
	}
	if workspaceID.IsZero() {
		return nil, violation("workspace id is required")
	}
	if inviteeEmail.IsZero() {
		return nil, violation("invitee email is required")
	}
	if !role.Valid() {
		return nil, violation("role is not valid")
	}
	o := buildOptions(opts)
	inv := &WorkspaceInvitation{
		EventEntity:  EventEntity{Entity: newEntity(o)},
		workspaceID:  workspaceID,
		inviteeEmail: inviteeEmail,
		role:         role,
		status:       InvitationStatusPending,
		tokenHash:    o.tokenHash,
	}
	inv.expiresAt = inv.CreatedAt().AddDate(0, 0, expiresInDays)
	inv.RaiseEvent(InvitationCreated{
		EventMeta:    inv.eventMeta(),
		InvitationID: inv.ID(),
		WorkspaceID:  workspaceID,
		InviteeEmail: inviteeEmail.String(),
		Role:         role,
		ExpiresAt:    inv.expiresAt,
	})
	return inv, nil
}

// RestoreWorkspaceInvitation rebuilds a persisted invitation.
func RestoreWorkspaceInvitation(r WorkspaceInvitationRecord, opts ...Option) *WorkspaceInvitation {
	return &WorkspaceInvitation{
		EventEntity:  EventEntity{Entity: restoreEntity(r.EntityRecord, buildOptions(opts))},
		workspaceID:  r.WorkspaceID,
		inviteeEmail: r.InviteeEmail,
		role:         r.Role,
		status:       r.Status,
		expiresAt:    r.ExpiresAt,
		tokenHash:    r.TokenHash,
	}
}

func (i *WorkspaceInvitation) WorkspaceID() idx.ID      { return i.workspaceID }
func (i *WorkspaceInvitation) InviteeEmail() Email      { return i.inviteeEmail }
func (i *WorkspaceInvitation) Role() Role               { return i.role }
func (i *WorkspaceInvitation) Status() InvitationStatus { return i.status }
func (i *WorkspaceInvitation) ExpiresAt() time.Time     { return i.expiresAt }
func (i *WorkspaceInvitation) TokenHash() string        { return i.tokenHash }

// IsExpired reports whether ExpiresAt has been reached.
func (i *WorkspaceInvitation) IsExpired() bool {
	return !i.now().Before(i.expiresAt)
}

func (i *WorkspaceInvitation) Record() WorkspaceInvitationRecord {
	return WorkspaceInvitationRecord{
		EntityRecord: i.Entity.Record(),
		WorkspaceID:  i.workspaceID,
		InviteeEmail: i.inviteeEmail,
		Role:         i.role,
		Status:       i.status,
		ExpiresAt:    i.expiresAt,
		TokenHash:    i.tokenHash,
	}
}

func (i *WorkspaceInvitation) requirePending() error {
	if i.status != InvitationStatusPending {
		return violation("invitation is %s, not pending", i.status)
	}
	return nil
}

// Accept moves a pending, unexpired invitation to Accepted.
func (i *WorkspaceInvitation) Accept() error {
	if err := i.requirePending(); err != nil {
		return err
	}
	if i.IsExpired() {
		return violation("invitation has expired")
	}
	i.status = InvitationStatusAccepted
	i.Touch()
	i.RaiseEvent(InvitationAccepted{
		EventMeta:    i.eventMeta(),
		InvitationID: i.ID(),
		WorkspaceID:  i.workspaceID,
		InviteeEmail: i.inviteeEmail.String(),
	})
	return nil
}

func (i *WorkspaceInvitation) Reject() error {
	if err := i.requirePending(); err != nil {
		return err
	}
	i.status = InvitationStatusRejected
	i.Touch()
	i.RaiseEvent(InvitationRejected{
		EventMeta:    i.eventMeta(),
		InvitationID: i.ID(),
		WorkspaceID:  i.workspaceID,
		InviteeEmail: i.inviteeEmail.String(),
	})
	return nil
}

// Expire marks a pending invitation as Expired. Housekeeping calls it once
// ExpiresAt has passed.
func (i *WorkspaceInvitation) Expire() error {
	if err := i.requirePending(); err != nil {
		return err
	}
	i.status = InvitationStatusExpired
	i.Touch()
	i.RaiseEvent(InvitationExpired{
		EventMeta:    i.eventMeta(),
		InvitationID: i.ID(),
		WorkspaceID:  i.workspaceID,
		InviteeEmail: i.inviteeEmail.String(),
	})
	return nil
}

func (i *WorkspaceInvitation) Equal(other *WorkspaceInvitation) bool { return SameEntity(i, other) }
