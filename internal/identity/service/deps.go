package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// Deps is embedded by every request-scoped service.
type Deps struct {
	Store  store.Store
	Events *EventDispatcher

	// Clock and NewID are passed to the entities the services create. Nil
	// falls back to the domain defaults.
	Clock domain.Clock
	NewID domain.IDGenerator
}

func (d Deps) options(extra ...domain.Option) []domain.Option {
	return append([]domain.Option{
		domain.WithClock(d.Clock),
		domain.WithIDGenerator(d.NewID),
	}, extra...)
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return domain.SystemClock()
}

func (d Deps) transact(ctx context.Context, fn func(tx store.Tx, track Track) error) error {
	return d.Events.Transact(ctx, d.Store, fn)
}

// access is the caller's view of one workspace.
type access struct {
	user      *domain.User
	workspace *domain.Workspace
	member    *domain.UserWorkspace
}

// authorize resolves the caller and the workspace. Callers without an active
// membership are told the workspace does not exist.
func authorize(ctx context.Context, tx store.Store, applicationUserID string, workspaceID idx.ID, requireAdmin bool) (access, error) {
	user, err := loadUser(ctx, tx, applicationUserID)
	if err != nil {
		return access{}, err
	}

	ws, err := tx.Workspaces().GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return access{}, ErrWorkspaceNotFound
		}
		return access{}, err
	}

	member, ok := ws.Membership(user.ID())
	if !ok || !member.IsActive() {
		return access{}, ErrWorkspaceNotFound
	}
	if requireAdmin && member.Role() != domain.RoleAdmin {
		return access{}, ErrNotWorkspaceAdmin
	}
	return access{user: user, workspace: ws, member: member}, nil
}

func loadUser(ctx context.Context, tx store.Store, applicationUserID string) (*domain.User, error) {
	user, err := tx.Users().GetUserByApplicationUserID(ctx, applicationUserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// protectLastAdmin fails when m is the only active admin of ws and the
// pending change would remove that status.
func protectLastAdmin(ws *domain.Workspace, m *domain.UserWorkspace) error {
	if m.IsActive() && m.Role() == domain.RoleAdmin && ws.ActiveAdminCount() <= 1 {
		return ErrLastAdmin
	}
	return nil
}
