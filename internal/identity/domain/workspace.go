package domain

import (
	"slices"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// DefaultMaxUsers is the capacity given to a workspace when none is chosen.
const DefaultMaxUsers = 10

// Workspace is the tenant aggregate root. It owns its memberships.
type Workspace struct {
	EventEntity

	name     Name
	isActive bool
	maxUsers int

	memberships []*UserWorkspace
}

// WorkspaceRecord is the persisted state of a Workspace.
type WorkspaceRecord struct {
	EntityRecord
	Name     Name
	IsActive bool
	MaxUsers int
}

// NewWorkspace creates an active workspace. maxUsers must be positive.
func NewWorkspace(name Name, maxUsers int, opts ...Option) (*Workspace, error) {
	if name.IsZero() {
		return nil, violation("name is required")
	}
	if maxUsers <= 0 {
		return nil, violation("max users must be greater than zero")
	}
	o := buildOptions(opts)
	w := &Workspace{
		EventEntity: EventEntity{Entity: newEntity(o)},
		name:        name,
		isActive:    true,
		maxUsers:    maxUsers,
	}
	w.RaiseEvent(WorkspaceCreated{
		EventMeta:   w.eventMeta(),
		WorkspaceID: w.ID(),
		Name:        name.String(),
		MaxUsers:    maxUsers,
	})
	return w, nil
}

// RestoreWorkspace rebuilds a persisted workspace.
func RestoreWorkspace(r WorkspaceRecord, memberships []*UserWorkspace, opts ...Option) *Workspace {
	return &Workspace{
		EventEntity: EventEntity{Entity: restoreEntity(r.EntityRecord, buildOptions(opts))},
		name:        r.Name,
		isActive:    r.IsActive,
		maxUsers:    r.MaxUsers,
		memberships: slices.Clone(memberships),
	}
}

func (w *Workspace) Name() Name     { return w.name }
func (w *Workspace) IsActive() bool { return w.isActive }
func (w *Workspace) MaxUsers() int  { return w.maxUsers }

// Memberships is a read only view of the workspace's associations.
func (w *Workspace) Memberships() []*UserWorkspace { return slices.Clone(w.memberships) }

// Membership returns the association for userID, if any.
func (w *Workspace) Membership(userID idx.ID) (*UserWorkspace, bool) {
	for _, m := range w.memberships {
		if m.UserID() == userID {
			return m, true
		}
	}
	return nil, false
}

// ActiveMemberCount counts memberships that are currently active.
func (w *Workspace) ActiveMemberCount() int {
	n := 0
	for _, m := range w.memberships {
		if m.IsActive() {
			n++
		}
	}
	return n
}

// ActiveAdminCount counts active memberships holding RoleAdmin.
func (w *Workspace) ActiveAdminCount() int {
	n := 0
	for _, m := range w.memberships {
		if m.IsActive() && m.Role() == RoleAdmin {
			n++
		}
	}
	return n
}

// CanAddUser reports whether one more active member fits under MaxUsers.
func (w *Workspace) CanAddUser() bool {
	return w.ActiveMemberCount() < w.maxUsers
}

// AddMembership attaches m to the workspace. Capacity is not checked here;
// callers consult CanAddUser before creating the membership.
func (w *Workspace) AddMembership(m *UserWorkspace) error {
	if m == nil {
		return violation("membership is required")
	}
	if m.WorkspaceID() != w.ID() {
		return violation("membership belongs to another workspace")
	}
	if _, exists := w.Membership(m.UserID()); exists {
		return violation("user is already a member of this workspace")
	}
	w.memberships = append(w.memberships, m)
	return nil
}

func (w *Workspace) Record() WorkspaceRecord {
	return WorkspaceRecord{
		EntityRecord: w.Entity.Record(),
		Name:         w.name,
		IsActive:     w.isActive,
		MaxUsers:     w.maxUsers,
	}
}

func (w *Workspace) UpdateName(raw string) error {
	v, err := ParseName(raw)
	if err != nil {
		return err
	}
	from := w.name
	w.name = v
	w.Touch()
	w.RaiseEvent(WorkspaceRenamed{
		EventMeta:   w.eventMeta(),
		WorkspaceID: w.ID(),
		From:        from.String(),
		To:          v.String(),
	})
	return nil
}

// Deactivate switches the workspace off. There is no way back.
func (w *Workspace) Deactivate() error {
	if !w.isActive {
		return violation("workspace is already inactive")
	}
	w.isActive = false
	w.Touch()
	w.RaiseEvent(WorkspaceDeactivated{
		EventMeta:   w.eventMeta(),
		WorkspaceID: w.ID(),
	})
	return nil
}

func (w *Workspace) Equal(other *Workspace) bool { return SameEntity(w, other) }
