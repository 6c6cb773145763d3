package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

func TestWorkspaceService_Create(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")

	ws := e.createWorkspace(t, "idp|ada", "  Analytical   Engine ", 0)
	require.Equal(t, "Analytical Engine", ws.Name().String())
	require.Equal(t, domain.DefaultMaxUsers, ws.MaxUsers())
	require.True(t, ws.IsActive())
	require.Empty(t, ws.Events(), "events are cleared after commit")

	got, err := e.workspaces.Get(ctx, "idp|ada", ws.ID())
	require.NoError(t, err)
	creator, ok := got.Membership(u.ID())
	require.True(t, ok)
	require.Equal(t, domain.RoleAdmin, creator.Role())
	require.True(t, creator.IsActive())

	require.Equal(t,
		[]string{domain.EventWorkspaceCreated, domain.EventMemberAdded},
		eventNames(e.pendingOutbox(t)),
	)

	t.Run("rule violations", func(t *testing.T) {
		_, err := e.workspaces.Create(ctx, "idp|ada", "A", 0)
		require.ErrorIs(t, err, domain.ErrRuleViolation)

		_, err = e.workspaces.Create(ctx, "idp|ada", "Difference Engine", -1)
		require.ErrorIs(t, err, domain.ErrRuleViolation)
	})

	t.Run("unknown caller", func(t *testing.T) {
		_, err := e.workspaces.Create(ctx, "idp|nobody", "Difference Engine", 0)
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestWorkspaceService_Access(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	e.register(t, "idp|grace", "Grace Hopper", "grace@example.com")
	e.register(t, "idp|alan", "Alan Turing", "alan@example.com")

	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)
	e.createWorkspace(t, "idp|ada", "Difference Engine", 5)
	e.join(t, "idp|ada", ws, "idp|grace", "grace@example.com", domain.RoleMember)

	t.Run("members list their workspaces", func(t *testing.T) {
		list, err := e.workspaces.ListForUser(ctx, "idp|ada")
		require.NoError(t, err)
		require.Len(t, list, 2)

		list, err = e.workspaces.ListForUser(ctx, "idp|grace")
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.True(t, list[0].Equal(ws))
	})

	t.Run("non members see not found", func(t *testing.T) {
		_, err := e.workspaces.Get(ctx, "idp|alan", ws.ID())
		require.ErrorIs(t, err, ErrWorkspaceNotFound)

		_, err = e.workspaces.Get(ctx, "idp|ada", idx.New())
		require.ErrorIs(t, err, ErrWorkspaceNotFound)
	})

	t.Run("members cannot rename", func(t *testing.T) {
		_, err := e.workspaces.Rename(ctx, "idp|grace", ws.ID(), "Hijacked")
		require.ErrorIs(t, err, ErrNotWorkspaceAdmin)
	})

	t.Run("admin renames", func(t *testing.T) {
		got, err := e.workspaces.Rename(ctx, "idp|ada", ws.ID(), "Engine Room")
		require.NoError(t, err)
		require.Equal(t, "Engine Room", got.Name().String())

		_, err = e.workspaces.Rename(ctx, "idp|ada", ws.ID(), "")
		require.ErrorIs(t, err, domain.ErrRuleViolation)
	})
}

func TestWorkspaceService_Deactivate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)

	inv, _, err := e.invitations.Invite(ctx, "idp|ada", ws.ID(), InviteRequest{
		Email: "grace@example.com",
		Role:  domain.RoleMember,
	})
	require.NoError(t, err)

	got, err := e.workspaces.Deactivate(ctx, "idp|ada", ws.ID())
	require.NoError(t, err)
	require.False(t, got.IsActive())

	t.Run("pending invitations are expired in the same transaction", func(t *testing.T) {
		stored, err := e.store.Invitations().GetInvitationByID(ctx, inv.ID())
		require.NoError(t, err)
		require.Equal(t, domain.InvitationStatusExpired, stored.Status())

		names := eventNames(e.pendingOutbox(t))
		require.Contains(t, names, domain.EventWorkspaceDeactivated)
		require.Contains(t, names, domain.EventInvitationExpired)
	})

	t.Run("second deactivation is a rule violation", func(t *testing.T) {
		_, err := e.workspaces.Deactivate(ctx, "idp|ada", ws.ID())
		require.ErrorIs(t, err, domain.ErrRuleViolation)
	})

	t.Run("inactive workspace cannot be renamed", func(t *testing.T) {
		_, err := e.workspaces.Rename(ctx, "idp|ada", ws.ID(), "Revived")
		require.ErrorIs(t, err, ErrWorkspaceInactive)
	})
}
