package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

func TestEntity_TouchAndSoftDelete(t *testing.T) {
	clock := newFakeClock()
	ws, err := NewWorkspace(MustParseName("Acme"), DefaultMaxUsers, WithClock(clock.Now))
	require.NoError(t, err)

	require.Equal(t, epoch, ws.CreatedAt())
	require.Nil(t, ws.UpdatedAt())
	require.Nil(t, ws.DeletedAt())

	t.Run("touch refreshes the update timestamp", func(t *testing.T) {
		clock.Advance(time.Minute)
		ws.Touch()
		require.Equal(t, epoch.Add(time.Minute), *ws.UpdatedAt())

		clock.Advance(time.Minute)
		ws.Touch()
		require.Equal(t, epoch.Add(2*time.Minute), *ws.UpdatedAt())
	})

	t.Run("soft delete has no guard and overwrites", func(t *testing.T) {
		clock.Advance(time.Hour)
		ws.SoftDelete()
		first := *ws.DeletedAt()
		require.True(t, ws.IsDeleted())

		clock.Advance(time.Hour)
		ws.SoftDelete()
		require.True(t, ws.DeletedAt().After(first))
	})

	t.Run("timestamps are returned by copy", func(t *testing.T) {
		deleted := ws.DeletedAt()
		*deleted = time.Time{}
		require.False(t, ws.DeletedAt().IsZero())
	})
}

func TestEventEntity_Buffer(t *testing.T) {
	var e EventEntity
	require.Empty(t, e.Events())

	first := WorkspaceRenamed{EventMeta: EventMeta{ID: idx.New(), At: epoch}, From: "a", To: "b"}
	second := WorkspaceDeactivated{EventMeta: EventMeta{ID: idx.New(), At: epoch}}

	e.RaiseEvent(first)
	e.RaiseEvent(second)

	events := e.Events()
	require.Len(t, events, 2)
	require.Equal(t, first, events[0])
	require.Equal(t, second, events[1])

	// the returned slice is a copy
	events[0] = second
	require.Equal(t, first, e.Events()[0])

	e.ClearEvents()
	require.Empty(t, e.Events())
}

func TestEventCapabilities(t *testing.T) {
	var created Event = WorkspaceCreated{}
	_, isDomain := created.(DomainEvent)
	_, isIntegration := created.(IntegrationEvent)
	require.True(t, isDomain)
	require.True(t, isIntegration)

	var renamed Event = WorkspaceRenamed{}
	_, isIntegration = renamed.(IntegrationEvent)
	require.False(t, isIntegration)

	var invited Event = InvitationCreated{}
	_, isDomain = invited.(DomainEvent)
	require.False(t, isDomain)
}

func TestSameEntity(t *testing.T) {
	gen := fixedID(userULID)

	u1, err := NewUser(MustParseFullName("Mary Jane"), MustParseEmail("mj@example.com"), "app-1", WithIDGenerator(gen))
	require.NoError(t, err)
	u2, err := NewUser(MustParseFullName("Someone Else"), MustParseEmail("se@example.com"), "app-2", WithIDGenerator(gen))
	require.NoError(t, err)
	ws, err := NewWorkspace(MustParseName("Acme"), 5, WithIDGenerator(gen))
	require.NoError(t, err)

	require.True(t, u1.Equal(u2), "same type and id")
	require.False(t, SameEntity(u1, ws), "same id, different type")

	other, err := NewUser(MustParseFullName("Mary Jane"), MustParseEmail("mj@example.com"), "app-1")
	require.NoError(t, err)
	require.False(t, u1.Equal(other))

	var nilUser *User
	require.False(t, u1.Equal(nilUser))
	require.False(t, SameEntity(nil, u1))
}

func TestRuleViolationKind(t *testing.T) {
	_, err := NewWorkspace(MustParseName("Acme"), 0)
	require.Error(t, err)
	require.True(t, IsRuleViolation(err))

	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "max users must be greater than zero", derr.Message)
}
