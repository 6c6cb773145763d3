package sqlite

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

type usersRepo struct {
	q *queries
}

func (r *usersRepo) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := r.q.insert(usersTable).Rows(userToRow(u)).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("could not insert user: %w", mapWriteErr(err))
	}
	return nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, u *domain.User) error {
	row := userToRow(u)
	return requireAffected(r.q.update(usersTable).
		Set(goqu.Record{
			"full_name":   row.FullName,
			"email":       row.Email,
			"modified_at": row.ModifiedAt,
			"deleted_at":  row.DeletedAt,
		}).
		Where(goqu.I("id").Eq(row.ID), live()).
		Executor().ExecContext(ctx))
}

func (r *usersRepo) GetUserByID(ctx context.Context, id idx.ID) (*domain.User, error) {
	return r.getBy(ctx, goqu.I("id").Eq(id))
}

func (r *usersRepo) GetUserByApplicationUserID(ctx context.Context, applicationUserID string) (*domain.User, error) {
	return r.getBy(ctx, goqu.I("application_user_id").Eq(applicationUserID))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email domain.Email) (*domain.User, error) {
	return r.getBy(ctx, goqu.I("email").Eq(email.String()))
}

func (r *usersRepo) getBy(ctx context.Context, cond goqu.Expression) (*domain.User, error) {
	var row userRow
	found, err := r.q.from(usersTable).Where(cond, live()).ScanStructContext(ctx, &row)
	if err := mapNotFound(found, err); err != nil {
		return nil, err
	}

	memberships, err := (&membershipsRepo{q: r.q}).ListMembershipsByUser(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return row.toDomain(memberships, r.q.opts)
}
