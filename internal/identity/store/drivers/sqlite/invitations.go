package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

type invitationsRepo struct {
	q *queries
}

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv *domain.WorkspaceInvitation) error {
	_, err := r.q.insert(invitationsTable).Rows(invitationToRow(inv)).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not insert invitation: %w", mapWriteErr(err))
	}
	return nil
}

func (r *invitationsRepo) UpdateInvitation(ctx context.Context, inv *domain.WorkspaceInvitation) error {
	row := invitationToRow(inv)
	return requireAffected(r.q.update(invitationsTable).
		Set(goqu.Record{
			"status":      row.Status,
			"modified_at": row.ModifiedAt,
			"deleted_at":  row.DeletedAt,
		}).
		Where(goqu.I("id").Eq(row.ID), live()).
		Executor().ExecContext(ctx))
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id idx.ID) (*domain.WorkspaceInvitation, error) {
	return r.getBy(ctx, goqu.I("id").Eq(id))
}

func (r *invitationsRepo) GetInvitationByTokenHash(ctx context.Context, hash string) (*domain.WorkspaceInvitation, error) {
	if hash == "" {
		return nil, mapNotFound(false, nil)
	}
	return r.getBy(ctx, goqu.I("token_hash").Eq(hash))
}

func (r *invitationsRepo) ListPendingByWorkspace(ctx context.Context, workspaceID idx.ID) ([]*domain.WorkspaceInvitation, error) {
	return r.listPending(ctx, goqu.I("workspace_id").Eq(workspaceID))
}

func (r *invitationsRepo) ListPendingByEmail(ctx context.Context, email domain.Email) ([]*domain.WorkspaceInvitation, error) {
	return r.listPending(ctx, goqu.I("invitee_email").Eq(email.String()))
}

func (r *invitationsRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.WorkspaceInvitation, error) {
	var rows []invitationRow
	err := r.q.from(invitationsTable).
		Where(
			goqu.I("status").Eq(domain.InvitationStatusPending.String()),
			goqu.I("expires_at").Lte(now),
			live(),
		).
		Order(goqu.I("expires_at").Asc()).
		Limit(uint(max(limit, 1))).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not list overdue invitations: %w", err)
	}
	return invitationRowsToDomain(rows, r.q.opts)
}

func (r *invitationsRepo) getBy(ctx context.Context, cond goqu.Expression) (*domain.WorkspaceInvitation, error) {
	var row invitationRow
	found, err := r.q.from(invitationsTable).Where(cond, live()).ScanStructContext(ctx, &row)
	if err := mapNotFound(found, err); err != nil {
		return nil, err
	}
	return row.toDomain(r.q.opts)
}

func (r *invitationsRepo) listPending(ctx context.Context, cond goqu.Expression) ([]*domain.WorkspaceInvitation, error) {
	var rows []invitationRow
	err := r.q.from(invitationsTable).
		Where(
			cond,
			goqu.I("status").Eq(domain.InvitationStatusPending.String()),
			live(),
		).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not list pending invitations: %w", err)
	}
	return invitationRowsToDomain(rows, r.q.opts)
}
