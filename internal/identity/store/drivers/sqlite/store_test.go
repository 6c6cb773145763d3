package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/internal/identity/store/drivers/sqlite"
)

const memoryDSN = "file::memory:?_time_format=sqlite"

var epoch = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(memoryDSN)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func at(t time.Time) domain.Option {
	return domain.WithClock(func() time.Time { return t })
}

func newUser(t *testing.T, email, appID string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(
		domain.MustParseFullName("Ada Lovelace"),
		domain.MustParseEmail(email),
		appID,
		at(epoch),
	)
	require.NoError(t, err)
	return u
}

func newWorkspace(t *testing.T, name string) *domain.Workspace {
	t.Helper()
	w, err := domain.NewWorkspace(domain.MustParseName(name), 3, at(epoch))
	require.NoError(t, err)
	return w
}

func TestStore_ApplyMigrationsIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.ApplyMigrations())

	version, dirty, err := s.MigrationVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.EqualValues(t, 1, version)
}

func TestStore_Ping(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newUser(t, "ada@example.com", "idp|ada")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	byID, err := s.Users().GetUserByID(ctx, u.ID())
	require.NoError(t, err)
	require.True(t, byID.Equal(u))
	require.Equal(t, "Ada Lovelace", byID.FullName().String())
	require.Equal(t, "ada@example.com", byID.Email().String())
	require.True(t, byID.CreatedAt().Equal(epoch))
	require.Nil(t, byID.UpdatedAt())

	byApp, err := s.Users().GetUserByApplicationUserID(ctx, "idp|ada")
	require.NoError(t, err)
	require.Equal(t, u.ID(), byApp.ID())

	byEmail, err := s.Users().GetUserByEmail(ctx, domain.MustParseEmail("ada@example.com"))
	require.NoError(t, err)
	require.Equal(t, u.ID(), byEmail.ID())

	_, err = s.Users().GetUserByApplicationUserID(ctx, "idp|nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_UniqueEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Users().CreateUser(ctx, newUser(t, "ada@example.com", "idp|1")))
	err := s.Users().CreateUser(ctx, newUser(t, "ada@example.com", "idp|2"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_UpdateAndSoftDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newUser(t, "ada@example.com", "idp|ada")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	loaded, err := s.Users().GetUserByID(ctx, u.ID())
	require.NoError(t, err)
	require.NoError(t, loaded.UpdateFullName("Augusta Ada King"))
	require.NoError(t, s.Users().UpdateUser(ctx, loaded))

	reloaded, err := s.Users().GetUserByID(ctx, u.ID())
	require.NoError(t, err)
	require.Equal(t, "Augusta Ada King", reloaded.FullName().String())
	require.NotNil(t, reloaded.UpdatedAt())

	reloaded.SoftDelete()
	require.NoError(t, s.Users().UpdateUser(ctx, reloaded))

	_, err = s.Users().GetUserByID(ctx, u.ID())
	require.ErrorIs(t, err, store.ErrNotFound)

	// The email is free again once the holder is soft-deleted.
	require.NoError(t, s.Users().CreateUser(ctx, newUser(t, "ada@example.com", "idp|ada")))
}

func TestWorkspaces_LoadWithMemberships(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newUser(t, "ada@example.com", "idp|ada")
	w := newWorkspace(t, "Analytical Engines")
	require.NoError(t, s.Users().CreateUser(ctx, u))
	require.NoError(t, s.Workspaces().CreateWorkspace(ctx, w))

	m, err := domain.NewUserWorkspace(u.ID(), w.ID(), domain.RoleAdmin, at(epoch))
	require.NoError(t, err)
	require.NoError(t, s.Memberships().CreateMembership(ctx, m))

	loaded, err := s.Workspaces().GetWorkspaceByID(ctx, w.ID())
	require.NoError(t, err)
	require.Equal(t, "Analytical Engines", loaded.Name().String())
	require.True(t, loaded.IsActive())
	require.Equal(t, 3, loaded.MaxUsers())
	require.Equal(t, 1, loaded.ActiveAdminCount())
	require.True(t, loaded.CanAddUser())

	user, err := s.Users().GetUserByID(ctx, u.ID())
	require.NoError(t, err)
	got, ok := user.Membership(w.ID())
	require.True(t, ok)
	require.Equal(t, domain.RoleAdmin, got.Role())

	err = s.Memberships().CreateMembership(ctx, m)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestWorkspaces_ListForUserSkipsInactiveMemberships(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newUser(t, "ada@example.com", "idp|ada")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	first := newWorkspace(t, "First")
	second := newWorkspace(t, "Second")
	for _, w := range []*domain.Workspace{first, second} {
		require.NoError(t, s.Workspaces().CreateWorkspace(ctx, w))
		m, err := domain.NewUserWorkspace(u.ID(), w.ID(), domain.RoleMember, at(epoch))
		require.NoError(t, err)
		require.NoError(t, s.Memberships().CreateMembership(ctx, m))
	}

	m, err := s.Memberships().GetMembership(ctx, u.ID(), second.ID())
	require.NoError(t, err)
	require.NoError(t, m.Deactivate())
	require.NoError(t, s.Memberships().UpdateMembership(ctx, m))

	list, err := s.Workspaces().ListWorkspacesForUser(ctx, u.ID())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, first.ID(), list[0].ID())
}

func TestInvitations_PendingAndOverdue(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	w := newWorkspace(t, "Analytical Engines")
	require.NoError(t, s.Workspaces().CreateWorkspace(ctx, w))

	email := domain.MustParseEmail("charles@example.com")
	short, err := domain.NewWorkspaceInvitation(w.ID(), email, domain.RoleMember, 1, at(epoch), domain.WithTokenHash("hash-short"))
	require.NoError(t, err)
	long, err := domain.NewWorkspaceInvitation(w.ID(), email, domain.RoleAdmin, 7, at(epoch), domain.WithTokenHash("hash-long"))
	require.NoError(t, err)
	require.NoError(t, s.Invitations().CreateInvitation(ctx, short))
	require.NoError(t, s.Invitations().CreateInvitation(ctx, long))

	byHash, err := s.Invitations().GetInvitationByTokenHash(ctx, "hash-long")
	require.NoError(t, err)
	require.Equal(t, long.ID(), byHash.ID())
	require.Equal(t, domain.RoleAdmin, byHash.Role())
	require.True(t, byHash.ExpiresAt().Equal(epoch.Add(7*24*time.Hour)))

	pending, err := s.Invitations().ListPendingByEmail(ctx, email)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	overdue, err := s.Invitations().ListOverdue(ctx, epoch.Add(48*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, short.ID(), overdue[0].ID())

	require.NoError(t, overdue[0].Expire())
	require.NoError(t, s.Invitations().UpdateInvitation(ctx, overdue[0]))

	pending, err = s.Invitations().ListPendingByWorkspace(ctx, w.ID())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, long.ID(), pending[0].ID())

	reloaded, err := s.Invitations().GetInvitationByID(ctx, short.ID())
	require.NoError(t, err)
	require.Equal(t, domain.InvitationStatusExpired, reloaded.Status())
}

func TestOutbox_Lifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	w := newWorkspace(t, "Analytical Engines")
	msgs := []store.OutboxMessage{
		{ID: "01HZX3K9Q0A1B2C3D4E5F6G7J0", EventName: domain.EventWorkspaceCreated, AggregateID: w.ID(), Payload: []byte(`{"a":1}`), OccurredAt: epoch},
		{ID: "01HZX3K9Q0A1B2C3D4E5F6G7J1", EventName: domain.EventWorkspaceRenamed, AggregateID: w.ID(), Payload: []byte(`{"a":2}`), OccurredAt: epoch.Add(time.Second)},
	}
	require.NoError(t, s.Outbox().Enqueue(ctx, msgs...))

	pending, err := s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, msgs[0].ID, pending[0].ID)

	count, err := s.Outbox().CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.JSONEq(t, `{"a":1}`, string(pending[0].Payload))

	require.NoError(t, s.Outbox().MarkFailed(ctx, msgs[0].ID, "broker down"))
	require.NoError(t, s.Outbox().MarkPublished(ctx, msgs[1].ID, epoch.Add(time.Minute)))

	pending, err = s.Outbox().ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 1, pending[0].Attempts)
	require.Equal(t, "broker down", pending[0].LastError)

	count, err = s.Outbox().CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	n, err := s.Outbox().DeletePublishedBefore(ctx, epoch.Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.ErrorIs(t, s.Outbox().MarkPublished(ctx, msgs[1].ID, epoch), store.ErrNotFound)
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := newUser(t, "ada@example.com", "idp|ada")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, u))
		return store.ErrAlreadyExists
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = s.Users().GetUserByID(ctx, u.ID())
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	}))
	_, err = s.Users().GetUserByID(ctx, u.ID())
	require.NoError(t, err)
}

func TestStore_NestedTxNotSupported(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tx, err := s.Tx(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Tx(ctx)
	require.Error(t, err)
}
