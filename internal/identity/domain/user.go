package domain

import (
	"slices"
	"strings"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// User is the aggregate root for a person known to the identity provider.
type User struct {
	EventEntity

	fullName          FullName
	email             Email
	applicationUserID string

	memberships []*UserWorkspace
}

// UserRecord is the persisted state of a User.
type UserRecord struct {
	EntityRecord
	FullName          FullName
	Email             Email
	ApplicationUserID string
}

// NewUser creates a user bound to the identity provider account
// applicationUserID, which must not be empty.
func NewUser(fullName FullName, email Email, applicationUserID string, opts ...Option) (*User, error) {
	if strings.TrimSpace(applicationUserID) == "" {
		return nil, violation("application user id is required")
	}
	if fullName.IsZero() {
		return nil, violation("full name is required")
	}
	if email.IsZero() {
		return nil, violation("email is required")
	}
	o := buildOptions(opts)
	return &User{
		EventEntity:       EventEntity{Entity: newEntity(o)},
		fullName:          fullName,
		email:             email,
		applicationUserID: applicationUserID,
	}, nil
}

// RestoreUser rebuilds a persisted user.
func RestoreUser(r UserRecord, memberships []*UserWorkspace, opts ...Option) *User {
	return &User{
		EventEntity:       EventEntity{Entity: restoreEntity(r.EntityRecord, buildOptions(opts))},
		fullName:          r.FullName,
		email:             r.Email,
		applicationUserID: r.ApplicationUserID,
		memberships:       slices.Clone(memberships),
	}
}

func (u *User) FullName() FullName        { return u.fullName }
func (u *User) Email() Email              { return u.email }
func (u *User) ApplicationUserID() string { return u.applicationUserID }

// Memberships is a read only view of the user's workspace associations.
func (u *User) Memberships() []*UserWorkspace { return slices.Clone(u.memberships) }

// Membership returns the user's association with workspaceID, if any.
func (u *User) Membership(workspaceID idx.ID) (*UserWorkspace, bool) {
	for _, m := range u.memberships {
		if m.WorkspaceID() == workspaceID {
			return m, true
		}
	}
	return nil, false
}

func (u *User) Record() UserRecord {
	return UserRecord{
		EntityRecord:      u.Entity.Record(),
		FullName:          u.fullName,
		Email:             u.email,
		ApplicationUserID: u.applicationUserID,
	}
}

func (u *User) UpdateFullName(raw string) error {
	v, err := ParseFullName(raw)
	if err != nil {
		return err
	}
	u.fullName = v
	u.Touch()
	return nil
}

func (u *User) UpdateEmail(raw string) error {
	v, err := ParseEmail(raw)
	if err != nil {
		return err
	}
	u.email = v
	u.Touch()
	return nil
}

func (u *User) Equal(other *User) bool { return SameEntity(u, other) }
