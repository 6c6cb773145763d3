package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

type userRow struct {
	ID                idx.ID       `db:"id"`
	FullName          string       `db:"full_name"`
	Email             string       `db:"email"`
	ApplicationUserID string       `db:"application_user_id"`
	CreatedAt         time.Time    `db:"created_at"`
	ModifiedAt        sql.NullTime `db:"modified_at"`
	DeletedAt         sql.NullTime `db:"deleted_at"`
}

type workspaceRow struct {
	ID         idx.ID       `db:"id"`
	Name       string       `db:"name"`
	IsActive   bool         `db:"is_active"`
	MaxUsers   int          `db:"max_users"`
	CreatedAt  time.Time    `db:"created_at"`
	ModifiedAt sql.NullTime `db:"modified_at"`
	DeletedAt  sql.NullTime `db:"deleted_at"`
}

type membershipRow struct {
	ID          idx.ID       `db:"id"`
	UserID      idx.ID       `db:"user_id"`
	WorkspaceID idx.ID       `db:"workspace_id"`
	Role        string       `db:"role"`
	IsActive    bool         `db:"is_active"`
	CreatedAt   time.Time    `db:"created_at"`
	ModifiedAt  sql.NullTime `db:"modified_at"`
	DeletedAt   sql.NullTime `db:"deleted_at"`
}

type invitationRow struct {
	ID           idx.ID       `db:"id"`
	WorkspaceID  idx.ID       `db:"workspace_id"`
	InviteeEmail string       `db:"invitee_email"`
	Role         string       `db:"role"`
	Status       string       `db:"status"`
	ExpiresAt    time.Time    `db:"expires_at"`
	TokenHash    string       `db:"token_hash"`
	CreatedAt    time.Time    `db:"created_at"`
	ModifiedAt   sql.NullTime `db:"modified_at"`
	DeletedAt    sql.NullTime `db:"deleted_at"`
}

type outboxRow struct {
	ID          idx.ID       `db:"id"`
	EventName   string       `db:"event_name"`
	AggregateID idx.ID       `db:"aggregate_id"`
	Payload     string       `db:"payload"`
	OccurredAt  time.Time    `db:"occurred_at"`
	Attempts    int          `db:"attempts"`
	LastError   string       `db:"last_error"`
	PublishedAt sql.NullTime `db:"published_at"`
}

func entityRecord(id idx.ID, created time.Time, modified, deleted sql.NullTime) domain.EntityRecord {
	return domain.EntityRecord{
		ID:        id,
		CreatedAt: created.UTC(),
		UpdatedAt: mapNullTimePtr(modified),
		DeletedAt: mapNullTimePtr(deleted),
	}
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time.UTC()
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func userToRow(u *domain.User) userRow {
	r := u.Record()
	return userRow{
		ID:                r.ID,
		FullName:          r.FullName.String(),
		Email:             r.Email.String(),
		ApplicationUserID: r.ApplicationUserID,
		CreatedAt:         r.CreatedAt,
		ModifiedAt:        mapOptionalTime(r.UpdatedAt),
		DeletedAt:         mapOptionalTime(r.DeletedAt),
	}
}

func (row userRow) toDomain(memberships []*domain.UserWorkspace, opts []domain.Option) (*domain.User, error) {
	fullName, err := domain.ParseFullName(row.FullName)
	if err != nil {
		return nil, fmt.Errorf("user %s: stored full name: %w", row.ID, err)
	}
	email, err := domain.ParseEmail(row.Email)
	if err != nil {
		return nil, fmt.Errorf("user %s: stored email: %w", row.ID, err)
	}
	return domain.RestoreUser(domain.UserRecord{
		EntityRecord:      entityRecord(row.ID, row.CreatedAt, row.ModifiedAt, row.DeletedAt),
		FullName:          fullName,
		Email:             email,
		ApplicationUserID: row.ApplicationUserID,
	}, memberships, opts...), nil
}

func workspaceToRow(w *domain.Workspace) workspaceRow {
	r := w.Record()
	return workspaceRow{
		ID:         r.ID,
		Name:       r.Name.String(),
		IsActive:   r.IsActive,
		MaxUsers:   r.MaxUsers,
		CreatedAt:  r.CreatedAt,
		ModifiedAt: mapOptionalTime(r.UpdatedAt),
		DeletedAt:  mapOptionalTime(r.DeletedAt),
	}
}

func (row workspaceRow) toDomain(memberships []*domain.UserWorkspace, opts []domain.Option) (*domain.Workspace, error) {
	name, err := domain.ParseName(row.Name)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: stored name: %w", row.ID, err)
	}
	return domain.RestoreWorkspace(domain.WorkspaceRecord{
		EntityRecord: entityRecord(row.ID, row.CreatedAt, row.ModifiedAt, row.DeletedAt),
		Name:         name,
		IsActive:     row.IsActive,
		MaxUsers:     row.MaxUsers,
	}, memberships, opts...), nil
}

func membershipToRow(m *domain.UserWorkspace) membershipRow {
	r := m.Record()
	return membershipRow{
		ID:          r.ID,
		UserID:      r.UserID,
		WorkspaceID: r.WorkspaceID,
		Role:        r.Role.String(),
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		ModifiedAt:  mapOptionalTime(r.UpdatedAt),
		DeletedAt:   mapOptionalTime(r.DeletedAt),
	}
}

func (row membershipRow) toDomain(opts []domain.Option) (*domain.UserWorkspace, error) {
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return nil, fmt.Errorf("membership %s: stored role: %w", row.ID, err)
	}
	return domain.RestoreUserWorkspace(domain.UserWorkspaceRecord{
		EntityRecord: entityRecord(row.ID, row.CreatedAt, row.ModifiedAt, row.DeletedAt),
		UserID:       row.UserID,
		WorkspaceID:  row.WorkspaceID,
		Role:         role,
		IsActive:     row.IsActive,
	}, opts...), nil
}

func membershipRowsToDomain(rows []membershipRow, opts []domain.Option) ([]*domain.UserWorkspace, error) {
	out := make([]*domain.UserWorkspace, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain(opts)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func invitationToRow(inv *domain.WorkspaceInvitation) invitationRow {
	r := inv.Record()
	return invitationRow{
		ID:           r.ID,
		WorkspaceID:  r.WorkspaceID,
		InviteeEmail: r.InviteeEmail.String(),
		Role:         r.Role.String(),
		Status:       r.Status.String(),
		ExpiresAt:    r.ExpiresAt,
		TokenHash:    r.TokenHash,
		CreatedAt:    r.CreatedAt,
		ModifiedAt:   mapOptionalTime(r.UpdatedAt),
		DeletedAt:    mapOptionalTime(r.DeletedAt),
	}
}

func (row invitationRow) toDomain(opts []domain.Option) (*domain.WorkspaceInvitation, error) {
	email, err := domain.ParseEmail(row.InviteeEmail)
	if err != nil {
		return nil, fmt.Errorf("invitation %s: stored email: %w", row.ID, err)
	}
	role, err := domain.ParseRole(row.Role)
	if err != nil {
		return nil, fmt.Errorf("invitation %s: stored role: %w", row.ID, err)
	}
	status, err := domain.ParseInvitationStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("invitation %s: stored status: %w", row.ID, err)
	}
	return domain.RestoreWorkspaceInvitation(domain.WorkspaceInvitationRecord{
		EntityRecord: entityRecord(row.ID, row.CreatedAt, row.ModifiedAt, row.DeletedAt),
		WorkspaceID:  row.WorkspaceID,
		InviteeEmail: email,
		Role:         role,
		Status:       status,
		ExpiresAt:    row.ExpiresAt.UTC(),
		TokenHash:    row.TokenHash,
	}, opts...), nil
}

func invitationRowsToDomain(rows []invitationRow, opts []domain.Option) ([]*domain.WorkspaceInvitation, error) {
	out := make([]*domain.WorkspaceInvitation, 0, len(rows))
	for _, row := range rows {
		inv, err := row.toDomain(opts)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}
