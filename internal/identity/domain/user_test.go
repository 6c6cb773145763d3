package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	fullName := MustParseFullName("Mary Jane")
	email := MustParseEmail("mj@example.com")

	t.Run("requires application user id", func(t *testing.T) {
		u, err := NewUser(fullName, email, "")
		require.ErrorIs(t, err, ErrRuleViolation)
		require.Nil(t, u)
	})

	t.Run("rejects unvalidated values", func(t *testing.T) {
		u, err := NewUser(FullName{}, email, "01JAPPUSER")
		require.ErrorIs(t, err, ErrRuleViolation)
		require.EqualError(t, err, "full name is required")
		require.Nil(t, u)

		u, err = NewUser(fullName, Email{}, "01JAPPUSER")
		require.ErrorIs(t, err, ErrRuleViolation)
		require.EqualError(t, err, "email is required")
		require.Nil(t, u)
	})

	t.Run("creates user", func(t *testing.T) {
		clock := newFakeClock()
		u, err := NewUser(fullName, email, "01JAPPUSER", WithClock(clock.Now))
		require.NoError(t, err)
		require.False(t, u.ID().IsZero())
		require.Equal(t, fullName, u.FullName())
		require.Equal(t, email, u.Email())
		require.Equal(t, "01JAPPUSER", u.ApplicationUserID())
		require.Equal(t, epoch, u.CreatedAt())
		require.Empty(t, u.Memberships())
		require.Empty(t, u.Events())
	})
}

func TestUser_Updates(t *testing.T) {
	clock := newFakeClock()
	u, err := NewUser(MustParseFullName("Mary Jane"), MustParseEmail("mj@example.com"), "app", WithClock(clock.Now))
	require.NoError(t, err)

	t.Run("full name", func(t *testing.T) {
		clock.Advance(time.Minute)
		require.NoError(t, u.UpdateFullName("  Mary   Jane  O'Brien "))
		require.Equal(t, "Mary Jane O'Brien", u.FullName().String())
		require.Equal(t, epoch.Add(time.Minute), *u.UpdatedAt())

		require.ErrorIs(t, u.UpdateFullName("John123"), ErrRuleViolation)
		require.Equal(t, "Mary Jane O'Brien", u.FullName().String(), "failed update leaves state untouched")
	})

	t.Run("email", func(t *testing.T) {
		require.NoError(t, u.UpdateEmail(" New@Example.com "))
		require.Equal(t, "new@example.com", u.Email().String())

		require.ErrorIs(t, u.UpdateEmail("broken"), ErrRuleViolation)
		require.Equal(t, "new@example.com", u.Email().String())
	})

	t.Run("updates raise no events", func(t *testing.T) {
		require.Empty(t, u.Events())
	})
}

func TestRestoreUser(t *testing.T) {
	updated := epoch.Add(time.Hour)
	m := RestoreUserWorkspace(UserWorkspaceRecord{
		EntityRecord: EntityRecord{ID: fixedID(userULID)(), CreatedAt: epoch},
		UserID:       fixedID(userULID)(),
		WorkspaceID:  fixedID(workspaceULID)(),
		Role:         RoleMember,
		IsActive:     true,
	})

	u := RestoreUser(UserRecord{
		EntityRecord:      EntityRecord{ID: fixedID(userULID)(), CreatedAt: epoch, UpdatedAt: &updated},
		FullName:          MustParseFullName("Mary Jane"),
		Email:             MustParseEmail("mj@example.com"),
		ApplicationUserID: "app",
	}, []*UserWorkspace{m})

	require.Equal(t, userULID, u.ID().String())
	require.Equal(t, updated, *u.UpdatedAt())
	require.Len(t, u.Memberships(), 1)

	got, ok := u.Membership(fixedID(workspaceULID)())
	require.True(t, ok)
	require.True(t, got.Equal(m))
	require.Empty(t, u.Events())

	rec := u.Record()
	require.Equal(t, "app", rec.ApplicationUserID)
	require.Equal(t, epoch, rec.CreatedAt)
}
