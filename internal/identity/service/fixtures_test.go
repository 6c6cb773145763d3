package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/metrics"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/internal/identity/store/drivers/sqlite"
)

const memoryDSN = "file::memory:?_time_format=sqlite"

var epoch = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// env wires every service against one in-memory store sharing a fake clock.
type env struct {
	clock   *fakeClock
	store   *sqlite.Store
	metrics *metrics.Metrics
	events  *EventDispatcher

	users       *UserService
	workspaces  *WorkspaceService
	memberships *MembershipService
	invitations *InvitationService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clock := &fakeClock{t: epoch}
	st, err := sqlite.NewStore(memoryDSN, domain.WithClock(clock.Now))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	m := metrics.New()
	events := NewEventDispatcher(m)
	RegisterHandlers(events)

	deps := Deps{Store: st, Events: events, Clock: clock.Now}
	return &env{
		clock:       clock,
		store:       st,
		metrics:     m,
		events:      events,
		users:       &UserService{Deps: deps},
		workspaces:  &WorkspaceService{Deps: deps},
		memberships: &MembershipService{Deps: deps},
		invitations: &InvitationService{Deps: deps},
	}
}

func (e *env) register(t *testing.T, appID, fullName, email string) *domain.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), appID, fullName, email)
	require.NoError(t, err)
	return u
}

func (e *env) createWorkspace(t *testing.T, appID, name string, maxUsers int) *domain.Workspace {
	t.Helper()
	ws, err := e.workspaces.Create(context.Background(), appID, name, maxUsers)
	require.NoError(t, err)
	return ws
}

// join invites email as role and accepts on behalf of appID.
func (e *env) join(t *testing.T, adminAppID string, ws *domain.Workspace, appID, email string, role domain.Role) *domain.UserWorkspace {
	t.Helper()
	ctx := context.Background()
	_, token, err := e.invitations.Invite(ctx, adminAppID, ws.ID(), InviteRequest{Email: email, Role: role})
	require.NoError(t, err)
	m, err := e.invitations.Accept(ctx, appID, token)
	require.NoError(t, err)
	return m
}

func (e *env) pendingOutbox(t *testing.T) []store.OutboxMessage {
	t.Helper()
	msgs, err := e.store.Outbox().ListPending(context.Background(), 1000)
	require.NoError(t, err)
	return msgs
}

func eventNames(msgs []store.OutboxMessage) []string {
	names := make([]string, 0, len(msgs))
	for _, m := range msgs {
		names = append(names, m.EventName)
	}
	return names
}
