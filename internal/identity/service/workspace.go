package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

type WorkspaceService struct {
	Deps
}

// Create makes a workspace with the caller as its first admin. maxUsers of
// zero selects domain.DefaultMaxUsers.
func (s *WorkspaceService) Create(ctx context.Context, applicationUserID, name string, maxUsers int) (*domain.Workspace, error) {
	log := slogx.FromContext(ctx)

	wsName, err := domain.ParseName(name)
	if err != nil {
		return nil, err
	}
	if maxUsers == 0 {
		maxUsers = domain.DefaultMaxUsers
	}

	var ws *domain.Workspace
	err = s.transact(ctx, func(tx store.Tx, track Track) error {
		// 1. Resolve the creator.
		user, err := loadUser(ctx, tx, applicationUserID)
		if err != nil {
			return err
		}

		// 2. Build the aggregate and its admin membership.
		if ws, err = domain.NewWorkspace(wsName, maxUsers, s.options()...); err != nil {
			return err
		}
		admin, err := domain.NewUserWorkspace(user.ID(), ws.ID(), domain.RoleAdmin, s.options()...)
		if err != nil {
			return err
		}
		if err := ws.AddMembership(admin); err != nil {
			return err
		}

		// 3. Persist both rows in the same transaction.
		if err := tx.Workspaces().CreateWorkspace(ctx, ws); err != nil {
			return err
		}
		if err := tx.Memberships().CreateMembership(ctx, admin); err != nil {
			return err
		}
		track(ws, admin)
		return nil
	})
	if err != nil {
		if !domain.IsRuleViolation(err) && !errors.Is(err, ErrUserNotFound) {
			log.Error("failed to create workspace", slogx.Err(err))
		}
		return nil, err
	}

	log.Info("workspace created",
		slog.String("workspace_id", ws.ID().String()),
		slog.Int("max_users", ws.MaxUsers()),
	)
	return ws, nil
}

// Get returns the workspace with its memberships. Only active members may
// read it.
func (s *WorkspaceService) Get(ctx context.Context, applicationUserID string, workspaceID idx.ID) (*domain.Workspace, error) {
	acc, err := authorize(ctx, s.Store, applicationUserID, workspaceID, false)
	if err != nil {
		return nil, err
	}
	return acc.workspace, nil
}

// ListForUser returns the workspaces the caller is an active member of.
func (s *WorkspaceService) ListForUser(ctx context.Context, applicationUserID string) ([]*domain.Workspace, error) {
	user, err := loadUser(ctx, s.Store, applicationUserID)
	if err != nil {
		return nil, err
	}
	return s.Store.Workspaces().ListWorkspacesForUser(ctx, user.ID())
}

func (s *WorkspaceService) Rename(ctx context.Context, applicationUserID string, workspaceID idx.ID, name string) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := s.transact(ctx, func(tx store.Tx, track Track) error {
		acc, err := authorize(ctx, tx, applicationUserID, workspaceID, true)
		if err != nil {
			return err
		}
		ws = acc.workspace
		if !ws.IsActive() {
			return ErrWorkspaceInactive
		}
		if err := ws.UpdateName(name); err != nil {
			return err
		}
		if err := tx.Workspaces().UpdateWorkspace(ctx, ws); err != nil {
			return err
		}
		track(ws)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Deactivate closes the workspace. Pending invitations are expired by the
// handler subscribed to domain.EventWorkspaceDeactivated.
func (s *WorkspaceService) Deactivate(ctx context.Context, applicationUserID string, workspaceID idx.ID) (*domain.Workspace, error) {
	var ws *domain.Workspace
	err := s.transact(ctx, func(tx store.Tx, track Track) error {
		acc, err := authorize(ctx, tx, applicationUserID, workspaceID, true)
		if err != nil {
			return err
		}
		ws = acc.workspace
		if err := ws.Deactivate(); err != nil {
			return err
		}
		if err := tx.Workspaces().UpdateWorkspace(ctx, ws); err != nil {
			return err
		}
		track(ws)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("workspace deactivated", slog.String("workspace_id", workspaceID.String()))
	return ws, nil
}
