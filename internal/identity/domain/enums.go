package domain

import "strings"

// Role is a member's permission level inside a workspace.
type Role int

const (
	RoleAdmin  Role = 1
	RoleMember Role = 2
)

var roleLabels = map[Role]string{
	RoleAdmin:  "admin",
	RoleMember: "member",
}

func (r Role) String() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return "unknown"
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// ParseRole accepts a role label in any case.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for r, l := range roleLabels {
		if l == s {
			return r, nil
		}
	}
	return 0, violation("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// InvitationStatus tracks where an invitation is in its lifecycle.
type InvitationStatus int

const (
	InvitationStatusPending  InvitationStatus = 1
	InvitationStatusAccepted InvitationStatus = 2
	InvitationStatusRejected InvitationStatus = 3
	InvitationStatusExpired  InvitationStatus = 4
)

var invitationStatusLabels = map[InvitationStatus]string{
	InvitationStatusPending:  "pending",
	InvitationStatusAccepted: "accepted",
	InvitationStatusRejected: "rejected",
	InvitationStatusExpired:  "expired",
}

func (s InvitationStatus) String() string {
	if l, ok := invitationStatusLabels[s]; ok {
		return l
	}
	return "unknown"
}

func ParseInvitationStatus(s string) (InvitationStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, l := range invitationStatusLabels {
		if l == s {
			return st, nil
		}
	}
	return 0, violation("unknown invitation status %q", s)
}

func (s InvitationStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *InvitationStatus) UnmarshalText(b []byte) error {
	v, err := ParseInvitationStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
