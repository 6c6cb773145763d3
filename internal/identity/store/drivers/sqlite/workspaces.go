package sqlite

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

type workspacesRepo struct {
	q *queries
}

func (r *workspacesRepo) CreateWorkspace(ctx context.Context, w *domain.Workspace) error {
	_, err := r.q.insert(workspacesTable).Rows(workspaceToRow(w)).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not insert workspace: %w", mapWriteErr(err))
	}
	return nil
}

func (r *workspacesRepo) UpdateWorkspace(ctx context.Context, w *domain.Workspace) error {
	row := workspaceToRow(w)
	return requireAffected(r.q.update(workspacesTable).
		Set(goqu.Record{
			"name":        row.Name,
			"is_active":   row.IsActive,
			"max_users":   row.MaxUsers,
			"modified_at": row.ModifiedAt,
			"deleted_at":  row.DeletedAt,
		}).
		Where(goqu.I("id").Eq(row.ID), live()).
		Executor().ExecContext(ctx))
}

func (r *workspacesRepo) GetWorkspaceByID(ctx context.Context, id idx.ID) (*domain.Workspace, error) {
	var row workspaceRow
	found, err := r.q.from(workspacesTable).
		Where(goqu.I("id").Eq(id), live()).
		ScanStructContext(ctx, &row)
	if err := mapNotFound(found, err); err != nil {
		return nil, err
	}

	memberships, err := (&membershipsRepo{q: r.q}).ListMembershipsByWorkspace(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return row.toDomain(memberships, r.q.opts)
}

func (r *workspacesRepo) ListWorkspacesForUser(ctx context.Context, userID idx.ID) ([]*domain.Workspace, error) {
	memberOf := r.q.from(membershipsTable).
		Select("workspace_id").
		Where(
			goqu.I("user_id").Eq(userID),
			goqu.I("is_active").Eq(true),
			live(),
		)

	var rows []workspaceRow
	err := r.q.from(workspacesTable).
		Where(goqu.I("id").In(memberOf), live()).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("could not list workspaces for user: %w", err)
	}

	out := make([]*domain.Workspace, 0, len(rows))
	for _, row := range rows {
		w, err := row.toDomain(nil, r.q.opts)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
