package domain

import "github.com/aussiebroadwan/tenancy/pkg/idx"

// UserWorkspace associates a user with a workspace under a role.
// The (UserID, WorkspaceID) pair is unique.
type UserWorkspace struct {
	EventEntity

	userID      idx.ID
	workspaceID idx.ID
	role        Role
	isActive    bool
}

// UserWorkspaceRecord is the persisted state of a UserWorkspace.
type UserWorkspaceRecord struct {
	EntityRecord
	UserID      idx.ID
	WorkspaceID idx.ID
	Role        Role
	IsActive    bool
}

// NewUserWorkspace creates an active membership. The user id is checked
// before the workspace id.
func NewUserWorkspace(userID, workspaceID idx.ID, role Role, opts ...Option) (*UserWorkspace, error) {
	if userID.IsZero() {
		return nil, violation("user id is required")
	}
	if workspaceID.IsZero() {
		return nil, violation("workspace id is required")
	}
	if !role.Valid() {
		return nil, violation("role is not valid")
	}
	o := buildOptions(opts)
	m := &UserWorkspace{
		EventEntity: EventEntity{Entity: newEntity(o)},
		userID:      userID,
		workspaceID: workspaceID,
		role:        role,
		isActive:    true,
	}
	m.RaiseEvent(MemberAdded{
		EventMeta:    m.eventMeta(),
		MembershipID: m.ID(),
		UserID:       userID,
		WorkspaceID:  workspaceID,
		Role:         role,
	})
	return m, nil
}

// RestoreUserWorkspace rebuilds a persisted membership.
func RestoreUserWorkspace(r UserWorkspaceRecord, opts ...Option) *UserWorkspace {
	return &UserWorkspace{
		EventEntity: EventEntity{Entity: restoreEntity(r.EntityRecord, buildOptions(opts))},
		userID:      r.UserID,
		workspaceID: r.WorkspaceID,
		role:        r.Role,
		isActive:    r.IsActive,
	}
}

func (m *UserWorkspace) UserID() idx.ID      { return m.userID }
func (m *UserWorkspace) WorkspaceID() idx.ID { return m.workspaceID }
func (m *UserWorkspace) Role() Role          { return m.role }
func (m *UserWorkspace) IsActive() bool      { return m.isActive }

func (m *UserWorkspace) Record() UserWorkspaceRecord {
	return UserWorkspaceRecord{
		EntityRecord: m.Entity.Record(),
		UserID:       m.userID,
		WorkspaceID:  m.workspaceID,
		Role:         m.role,
		IsActive:     m.isActive,
	}
}

// ChangeRole rejects a change to the role already held.
func (m *UserWorkspace) ChangeRole(role Role) error {
	if !role.Valid() {
		return violation("role is not valid")
	}
	if role == m.role {
		return violation("member already has role %s", role)
	}
	from := m.role
	m.role = role
	m.Touch()
	m.RaiseEvent(MemberRoleChanged{
		EventMeta:    m.eventMeta(),
		MembershipID: m.ID(),
		UserID:       m.userID,
		WorkspaceID:  m.workspaceID,
		From:         from,
		To:           role,
	})
	return nil
}

func (m *UserWorkspace) Activate() error {
	if m.isActive {
		return violation("membership is already active")
	}
	m.isActive = true
	m.Touch()
	m.RaiseEvent(MemberActivated{
		EventMeta:    m.eventMeta(),
		MembershipID: m.ID(),
		UserID:       m.userID,
		WorkspaceID:  m.workspaceID,
	})
	return nil
}

func (m *UserWorkspace) Deactivate() error {
	if !m.isActive {
		return violation("membership is already inactive")
	}
	m.isActive = false
	m.Touch()
	m.RaiseEvent(MemberDeactivated{
		EventMeta:    m.eventMeta(),
		MembershipID: m.ID(),
		UserID:       m.userID,
		WorkspaceID:  m.workspaceID,
	})
	return nil
}

func (m *UserWorkspace) Equal(other *UserWorkspace) bool { return SameEntity(m, other) }
