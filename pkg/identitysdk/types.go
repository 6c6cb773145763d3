package identitysdk

import "time"

// Scopes the service checks on access tokens. Write implies read.
const (
	ScopeRead  = "identity:read"
	ScopeWrite = "identity:write"
)

// Role and invitation status labels as they appear on the wire.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
	InvitationExpired  = "expired"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Health Types
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys"`
}

// ============================================================================
// User Types
// ============================================================================

// RegisterUserRequest creates the caller's profile. Empty fields fall back to
// the name and email claims of the access token.
type RegisterUserRequest struct {
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// UpdateProfileRequest changes the caller's profile. Omitted fields are kept.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type UserResponse struct {
	ID                string     `json:"id"`
	ApplicationUserID string     `json:"application_user_id"`
	FullName          string     `json:"full_name"`
	Email             string     `json:"email"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// ============================================================================
// Workspace Types
// ============================================================================

// CreateWorkspaceRequest creates a workspace. MaxUsers of zero selects the
// server default.
type CreateWorkspaceRequest struct {
	Name     string `json:"name"`
	MaxUsers int    `json:"max_users,omitempty"`
}

type RenameWorkspaceRequest struct {
	Name string `json:"name"`
}

type WorkspaceResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	MaxUsers  int              `json:"max_users"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
	Members   []MemberResponse `json:"members,omitempty"`
}

type ListWorkspacesResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
}

// ============================================================================
// Membership Types
// ============================================================================

type MemberResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	WorkspaceID string     `json:"workspace_id"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ============================================================================
// Invitation Types
// ============================================================================

// InviteRequest invites an email address. ExpiresInDays of zero selects the
// server default; the maximum is 7.
type InviteRequest struct {
	Email         string `json:"email"`
	Role          string `json:"role"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

// InvitationResponse describes an invitation. Token is only set in the
// response to the request that created it.
type InvitationResponse struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	InviteeEmail string    `json:"invitee_email"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	Token        string    `json:"token,omitempty"`
}

type ListInvitationsResponse struct {
	Invitations []InvitationResponse `json:"invitations"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token"`
}
