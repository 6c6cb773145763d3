package domain

import (
	"time"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// Event is anything an entity records about a state change.
type Event interface {
	EventID() idx.ID
	OccurredOn() time.Time
	EventName() string
}

// DomainEvent is consumed synchronously, in process, inside the transaction
// that produced it.
type DomainEvent interface {
	Event
	inProcess()
}

// IntegrationEvent is published to out-of-process subscribers after commit.
type IntegrationEvent interface {
	Event
	published()
}

// InProcess tags an event as a DomainEvent when embedded.
type InProcess struct{}

func (InProcess) inProcess() {}

// Published tags an event as an IntegrationEvent when embedded.
type Published struct{}

func (Published) published() {}

// EventMeta carries the identifier and timestamp every event has.
type EventMeta struct {
	ID idx.ID    `json:"event_id"`
	At time.Time `json:"occurred_on"`
}

func (m EventMeta) EventID() idx.ID       { return m.ID }
func (m EventMeta) OccurredOn() time.Time { return m.At }

// EventSource is implemented by every entity that raises events.
type EventSource interface {
	Events() []Event
	ClearEvents()
}

const (
	EventWorkspaceCreated     = "workspace.created"
	EventWorkspaceRenamed     = "workspace.renamed"
	EventWorkspaceDeactivated = "workspace.deactivated"
	EventMemberAdded          = "membership.added"
	EventMemberRoleChanged    = "membership.role_changed"
	EventMemberActivated      = "membership.activated"
	EventMemberDeactivated    = "membership.deactivated"
	EventInvitationCreated    = "invitation.created"
	EventInvitationAccepted   = "invitation.accepted"
	EventInvitationRejected   = "invitation.rejected"
	EventInvitationExpired    = "invitation.expired"
)

type WorkspaceCreated struct {
	EventMeta
	InProcess
	Published

	WorkspaceID idx.ID `json:"workspace_id"`
	Name        string `json:"name"`
	MaxUsers    int    `json:"max_users"`
}

func (WorkspaceCreated) EventName() string { return EventWorkspaceCreated }

type WorkspaceRenamed struct {
	EventMeta
	InProcess

	WorkspaceID idx.ID `json:"workspace_id"`
	From        string `json:"from"`
	To          string `json:"to"`
}

func (WorkspaceRenamed) EventName() string { return EventWorkspaceRenamed }

type WorkspaceDeactivated struct {
	EventMeta
	InProcess
	Published

	WorkspaceID idx.ID `json:"workspace_id"`
}

func (WorkspaceDeactivated) EventName() string { return EventWorkspaceDeactivated }

type MemberAdded struct {
	EventMeta
	InProcess
	Published

	MembershipID idx.ID `json:"membership_id"`
	UserID       idx.ID `json:"user_id"`
	WorkspaceID  idx.ID `json:"workspace_id"`
	Role         Role   `json:"role"`
}

func (MemberAdded) EventName() string { return EventMemberAdded }

type MemberRoleChanged struct {
	EventMeta
	InProcess
	Published

	MembershipID idx.ID `json:"membership_id"`
	UserID       idx.ID `json:"user_id"`
	WorkspaceID  idx.ID `json:"workspace_id"`
	From         Role   `json:"from"`
	To           Role   `json:"to"`
}

func (MemberRoleChanged) EventName() string { return EventMemberRoleChanged }

type MemberActivated struct {
	EventMeta
	InProcess

	MembershipID idx.ID `json:"membership_id"`
	UserID       idx.ID `json:"user_id"`
	WorkspaceID  idx.ID `json:"workspace_id"`
}

func (MemberActivated) EventName() string { return EventMemberActivated }

type MemberDeactivated struct {
	EventMeta
	InProcess
	Published

	MembershipID idx.ID `json:"membership_id"`
	UserID       idx.ID `json:"user_id"`
	WorkspaceID  idx.ID `json:"workspace_id"`
}

func (MemberDeactivated) EventName() string { return EventMemberDeactivated }

// InvitationCreated is published so a mailer can deliver the invitation.
type InvitationCreated struct {
	EventMeta
	Published

	InvitationID idx.ID    `json:"invitation_id"`
	WorkspaceID  idx.ID    `json:"workspace_id"`
	InviteeEmail string    `json:"invitee_email"`
	Role         Role      `json:"role"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (InvitationCreated) EventName() string { return EventInvitationCreated }

type InvitationAccepted struct {
	EventMeta
	InProcess
	Published

	InvitationID idx.ID `json:"invitation_id"`
	WorkspaceID  idx.ID `json:"workspace_id"`
	InviteeEmail string `json:"invitee_email"`
}

func (InvitationAccepted) EventName() string { return EventInvitationAccepted }

type InvitationRejected struct {
	EventMeta
	InProcess
	Published

	InvitationID idx.ID `json:"invitation_id"`
	WorkspaceID  idx.ID `json:"workspace_id"`
	InviteeEmail string `json:"invitee_email"`
}

func (InvitationRejected) EventName() string { return EventInvitationRejected }

type InvitationExpired struct {
	EventMeta
	InProcess
	Published

	InvitationID idx.ID `json:"invitation_id"`
	WorkspaceID  idx.ID `json:"workspace_id"`
	InviteeEmail string `json:"invitee_email"`
}

func (InvitationExpired) EventName() string { return EventInvitationExpired }
