package sqlite

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

type membershipsRepo struct {
	q *queries
}

func (r *membershipsRepo) CreateMembership(ctx context.Context, m *domain.UserWorkspace) error {
	_, err := r.q.insert(membershipsTable).Rows(membershipToRow(m)).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not insert membership: %w", mapWriteErr(err))
	}
	return nil
}

func (r *membershipsRepo) UpdateMembership(ctx context.Context, m *domain.UserWorkspace) error {
	row := membershipToRow(m)
	return requireAffected(r.q.update(membershipsTable).
		Set(goqu.Record{
			"role":        row.Role,
			"is_active":   row.IsActive,
			"modified_at": row.ModifiedAt,
			"deleted_at":  row.DeletedAt,
		}).
		Where(goqu.I("id").Eq(row.ID), live()).
		Executor().ExecContext(ctx))
}

func (r *membershipsRepo) GetMembership(ctx context.Context, userID, workspaceID idx.ID) (*domain.UserWorkspace, error) {
	var row membershipRow
	found, err := r.q.from(membershipsTable).
		Where(
			goqu.I("user_id").Eq(userID),
			goqu.I("workspace_id").Eq(workspaceID),
			live(),
		).
		ScanStructContext(ctx, &row)
	if err := mapNotFound(found, err); err != nil {
		return nil, err
	}
	return row.toDomain(r.q.opts)
}

func (r *membershipsRepo) ListMembershipsByWorkspace(ctx context.Context, workspaceID idx.ID) ([]*domain.UserWorkspace, error) {
	return r.listBy(ctx, goqu.I("workspace_id").Eq(workspaceID))
}

func (r *membershipsRepo) ListMembershipsByUser(ctx context.Context, userID idx.ID) ([]*domain.UserWorkspace, error) {
	return r.listBy(ctx, goqu.I("user_id").Eq(userID))
}

func (r *membershipsRepo) listBy(ctx context.Context, cond goqu.Expression) ([]*domain.UserWorkspace, error) {
	var rows []membershipRow
	err := r.q.from(membershipsTable).
		Where(cond, live()).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not list memberships: %w", err)
	}
	return membershipRowsToDomain(rows, r.q.opts)
}
