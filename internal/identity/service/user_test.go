package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
)

func TestUserService_Register(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u := e.register(t, "idp|ada", "  Ada   Lovelace ", "Ada@Example.com")
	require.Equal(t, "Ada Lovelace", u.FullName().String())
	require.Equal(t, "ada@example.com", u.Email().String())
	require.Equal(t, epoch, u.CreatedAt())

	t.Run("same subject twice", func(t *testing.T) {
		_, err := e.users.Register(ctx, "idp|ada", "Ada Lovelace", "other@example.com")
		require.ErrorIs(t, err, ErrUserAlreadyRegistered)
	})

	t.Run("email in use", func(t *testing.T) {
		_, err := e.users.Register(ctx, "idp|other", "Grace Hopper", "ada@example.com")
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid input is a rule violation", func(t *testing.T) {
		_, err := e.users.Register(ctx, "idp|bad", "x", "grace@example.com")
		require.ErrorIs(t, err, domain.ErrRuleViolation)

		_, err = e.users.Register(ctx, "", "Grace Hopper", "grace@example.com")
		require.ErrorIs(t, err, domain.ErrRuleViolation)
	})

	t.Run("lookups", func(t *testing.T) {
		got, err := e.users.GetByApplicationUserID(ctx, "idp|ada")
		require.NoError(t, err)
		require.True(t, got.Equal(u))

		got, err = e.users.GetByID(ctx, u.ID())
		require.NoError(t, err)
		require.Equal(t, "idp|ada", got.ApplicationUserID())

		_, err = e.users.GetByApplicationUserID(ctx, "idp|nobody")
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	e.register(t, "idp|grace", "Grace Hopper", "grace@example.com")

	name := "Ada King"
	email := "ADA.KING@example.com"
	e.clock.Advance(1)
	u, err := e.users.UpdateProfile(ctx, "idp|ada", ProfileUpdate{FullName: &name, Email: &email})
	require.NoError(t, err)
	require.Equal(t, "Ada King", u.FullName().String())
	require.Equal(t, "ada.king@example.com", u.Email().String())
	require.NotNil(t, u.UpdatedAt())

	t.Run("invalid email leaves profile unchanged", func(t *testing.T) {
		bad := "not-an-email"
		other := "Someone Else"
		_, err := e.users.UpdateProfile(ctx, "idp|ada", ProfileUpdate{FullName: &other, Email: &bad})
		require.ErrorIs(t, err, domain.ErrRuleViolation)

		got, err := e.users.GetByApplicationUserID(ctx, "idp|ada")
		require.NoError(t, err)
		require.Equal(t, "Ada King", got.FullName().String())
	})

	t.Run("taken email", func(t *testing.T) {
		taken := "grace@example.com"
		_, err := e.users.UpdateProfile(ctx, "idp|ada", ProfileUpdate{Email: &taken})
		require.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestUserService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "idp|ada", "Ada Lovelace", "ada@example.com")
	e.register(t, "idp|grace", "Grace Hopper", "grace@example.com")
	ws := e.createWorkspace(t, "idp|ada", "Analytical Engine", 5)
	e.join(t, "idp|ada", ws, "idp|grace", "grace@example.com", domain.RoleMember)

	t.Run("last admin cannot be deleted", func(t *testing.T) {
		require.ErrorIs(t, e.users.Delete(ctx, "idp|ada"), ErrLastAdmin)
	})

	t.Run("member is deleted and loses access", func(t *testing.T) {
		require.NoError(t, e.users.Delete(ctx, "idp|grace"))

		_, err := e.users.GetByApplicationUserID(ctx, "idp|grace")
		require.ErrorIs(t, err, ErrUserNotFound)

		members, err := e.memberships.ListMembers(ctx, "idp|ada", ws.ID())
		require.NoError(t, err)
		for _, m := range members {
			if m.Role() == domain.RoleMember {
				require.False(t, m.IsActive())
			}
		}
	})

	t.Run("email can be registered again", func(t *testing.T) {
		_, err := e.users.Register(ctx, "idp|grace2", "Grace Hopper", "grace@example.com")
		require.NoError(t, err)
	})
}
