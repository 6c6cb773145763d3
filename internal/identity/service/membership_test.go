package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

func TestMembershipService_LastAdminIsProtected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)

	_, err := e.memberships.ChangeRole(ctx, "idp|ada", ws.ID(), ada.ID(), domain.RoleMember)
	require.ErrorIs(t, err, ErrLastAdmin)

	_, err = e.memberships.Deactivate(ctx, "idp|ada", ws.ID(), ada.ID())
	require.ErrorIs(t, err, ErrLastAdmin)

	require.ErrorIs(t, e.memberships.Leave(ctx, "idp|ada", ws.ID()), ErrLastAdmin)
}

func TestMembershipService_ChangeRole(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	grace := e.register(t, "idp|grace", "Grace Hopper", "grace@example.com")
	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)
	e.join(t, "idp|ada", ws, "idp|grace", "grace@example.com", domain.RoleMember)

	t.Run("members cannot change roles", func(t *testing.T) {
		_, err := e.memberships.ChangeRole(ctx, "idp|grace", ws.ID(), grace.ID(), domain.RoleAdmin)
		require.ErrorIs(t, err, ErrNotWorkspaceAdmin)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := e.memberships.ChangeRole(ctx, "idp|ada", ws.ID(), idx.New(), domain.RoleAdmin)
		require.ErrorIs(t, err, ErrMembershipNotFound)
	})

	t.Run("promote then demote the original admin", func(t *testing.T) {
		m, err := e.memberships.ChangeRole(ctx, "idp|ada", ws.ID(), grace.ID(), domain.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, m.Role())

		_, err = e.memberships.ChangeRole(ctx, "idp|grace", ws.ID(), ada.ID(), domain.RoleMember)
		require.NoError(t, err)
	})

	t.Run("same role is a rule violation", func(t *testing.T) {
		_, err := e.memberships.ChangeRole(ctx, "idp|grace", ws.ID(), ada.ID(), domain.RoleMember)
		require.ErrorIs(t, err, domain.ErrRuleViolation)
	})

	require.Contains(t, eventNames(e.pendingOutbox(t)), domain.EventMemberRoleChanged)
}

func TestMembershipService_ActivateChecksCapacity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	grace := e.register(t, "idp|grace", "Grace Hopper", "grace@example.com")
	e.register(t, "idp|alan", "Alan Turing", "alan@example.com")
	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 2)
	e.join(t, "idp|ada", ws, "idp|grace", "grace@example.com", domain.RoleMember)

	m, err := e.memberships.Deactivate(ctx, "idp|ada", ws.ID(), grace.ID())
	require.NoError(t, err)
	require.False(t, m.IsActive())

	// Alan takes the freed seat.
	e.join(t, "idp|ada", ws, "idp|alan", "alan@example.com", domain.RoleMember)

	_, err = e.memberships.Activate(ctx, "idp|ada", ws.ID(), grace.ID())
	require.ErrorIs(t, err, ErrWorkspaceFull)

	require.NoError(t, e.memberships.Leave(ctx, "idp|alan", ws.ID()))

	m, err = e.memberships.Activate(ctx, "idp|ada", ws.ID(), grace.ID())
	require.NoError(t, err)
	require.True(t, m.IsActive())

	_, err = e.memberships.Activate(ctx, "idp|ada", ws.ID(), grace.ID())
	require.ErrorIs(t, err, domain.ErrRuleViolation)
}

func TestMembershipService_ListMembers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	e.register(t, "idp|grace", "Grace Hopper", "grace@example.com")
	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)
	e.join(t, "idp|ada", ws, "idp|grace", "grace@example.com", domain.RoleMember)

	members, err := e.memberships.ListMembers(ctx, "idp|grace", ws.ID())
	require.NoError(t, err)
	require.Len(t, members, 2)

	require.NoError(t, e.memberships.Leave(ctx, "idp|grace", ws.ID()))

	_, err = e.memberships.ListMembers(ctx, "idp|grace", ws.ID())
	require.ErrorIs(t, err, ErrWorkspaceNotFound)
}
