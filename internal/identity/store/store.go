package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose one sub-repository per aggregate so a transaction scoped Store can be
// handed around without leaking the underlying handle.
//
// Default reads never return soft-deleted rows.
type Store interface {
	Users() Users
	Workspaces() Workspaces
	Memberships() Memberships
	Invitations() Invitations
	Outbox() Outbox

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil and
	// rolling back otherwise. Prefer it over Tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts u. Duplicate email or application user id yields
	// ErrAlreadyExists.
	CreateUser(ctx context.Context, u *domain.User) error

	// UpdateUser writes the mutable fields and audit timestamps of u.
	UpdateUser(ctx context.Context, u *domain.User) error

	// GetUserByID loads a user together with its memberships.
	GetUserByID(ctx context.Context, id idx.ID) (*domain.User, error)

	GetUserByApplicationUserID(ctx context.Context, applicationUserID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email domain.Email) (*domain.User, error)
}

type Workspaces interface {
	CreateWorkspace(ctx context.Context, w *domain.Workspace) error
	UpdateWorkspace(ctx context.Context, w *domain.Workspace) error

	// GetWorkspaceByID loads a workspace together with its memberships.
	GetWorkspaceByID(ctx context.Context, id idx.ID) (*domain.Workspace, error)

	// ListWorkspacesForUser returns workspaces where userID holds an active
	// membership, oldest first. Memberships are not loaded.
	ListWorkspacesForUser(ctx context.Context, userID idx.ID) ([]*domain.Workspace, error)
}

type Memberships interface {
	// CreateMembership inserts m. A second membership for the same
	// (user, workspace) pair yields ErrAlreadyExists.
	CreateMembership(ctx context.Context, m *domain.UserWorkspace) error
	UpdateMembership(ctx context.Context, m *domain.UserWorkspace) error

	GetMembership(ctx context.Context, userID, workspaceID idx.ID) (*domain.UserWorkspace, error)
	ListMembershipsByWorkspace(ctx context.Context, workspaceID idx.ID) ([]*domain.UserWorkspace, error)
	ListMembershipsByUser(ctx context.Context, userID idx.ID) ([]*domain.UserWorkspace, error)
}

type Invitations interface {
	CreateInvitation(ctx context.Context, inv *domain.WorkspaceInvitation) error
	UpdateInvitation(ctx context.Context, inv *domain.WorkspaceInvitation) error

	GetInvitationByID(ctx context.Context, id idx.ID) (*domain.WorkspaceInvitation, error)
	GetInvitationByTokenHash(ctx context.Context, hash string) (*domain.WorkspaceInvitation, error)

	// ListPendingByWorkspace returns pending invitations, including ones whose
	// expiry has passed but housekeeping has not yet processed.
	ListPendingByWorkspace(ctx context.Context, workspaceID idx.ID) ([]*domain.WorkspaceInvitation, error)
	ListPendingByEmail(ctx context.Context, email domain.Email) ([]*domain.WorkspaceInvitation, error)

	// ListOverdue returns up to limit pending invitations with expires_at <= now.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.WorkspaceInvitation, error)
}

// OutboxMessage is an integration event waiting to leave the process.
type OutboxMessage struct {
	ID          idx.ID
	EventName   string
	AggregateID idx.ID
	Payload     []byte // JSON
	OccurredAt  time.Time
	Attempts    int
	LastError   string
	PublishedAt *time.Time
}

type Outbox interface {
	// Enqueue stores messages; it is meant to run in the same transaction as
	// the aggregate writes that produced them.
	Enqueue(ctx context.Context, msgs ...OutboxMessage) error

	// ListPending returns up to limit unpublished messages, oldest first.
	ListPending(ctx context.Context, limit int) ([]OutboxMessage, error)

	// CountPending returns how many messages have not been published yet.
	CountPending(ctx context.Context) (int, error)

	MarkPublished(ctx context.Context, id idx.ID, at time.Time) error

	// MarkFailed bumps the attempt counter and records the error.
	MarkFailed(ctx context.Context, id idx.ID, reason string) error

	// DeletePublishedBefore purges delivered messages published before t and
	// returns how many were removed.
	DeletePublishedBefore(ctx context.Context, t time.Time) (int64, error)
}
