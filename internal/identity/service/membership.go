package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

// MembershipService changes who belongs to a workspace and with which role.
// Every mutation keeps at least one active admin.
type MembershipService struct {
	Deps
}

func (s *MembershipService) ListMembers(ctx context.Context, applicationUserID string, workspaceID idx.ID) ([]*domain.UserWorkspace, error) {
	acc, err := authorize(ctx, s.Store, applicationUserID, workspaceID, false)
	if err != nil {
		return nil, err
	}
	return acc.workspace.Memberships(), nil
}

func (s *MembershipService) ChangeRole(ctx context.Context, applicationUserID string, workspaceID, userID idx.ID, role domain.Role) (*domain.UserWorkspace, error) {
	return s.mutate(ctx, applicationUserID, workspaceID, userID, func(ws *domain.Workspace, m *domain.UserWorkspace) error {
		if role != domain.RoleAdmin {
			if err := protectLastAdmin(ws, m); err != nil {
				return err
			}
		}
		return m.ChangeRole(role)
	})
}

// Activate re-admits a deactivated member when the workspace has room.
func (s *MembershipService) Activate(ctx context.Context, applicationUserID string, workspaceID, userID idx.ID) (*domain.UserWorkspace, error) {
	return s.mutate(ctx, applicationUserID, workspaceID, userID, func(ws *domain.Workspace, m *domain.UserWorkspace) error {
		if !m.IsActive() && !ws.CanAddUser() {
			return ErrWorkspaceFull
		}
		return m.Activate()
	})
}

func (s *MembershipService) Deactivate(ctx context.Context, applicationUserID string, workspaceID, userID idx.ID) (*domain.UserWorkspace, error) {
	return s.mutate(ctx, applicationUserID, workspaceID, userID, func(ws *domain.Workspace, m *domain.UserWorkspace) error {
		if err := protectLastAdmin(ws, m); err != nil {
			return err
		}
		return m.Deactivate()
	})
}

// Leave deactivates the caller's own membership.
func (s *MembershipService) Leave(ctx context.Context, applicationUserID string, workspaceID idx.ID) error {
	err := s.transact(ctx, func(tx store.Tx, track Track) error {
		acc, err := authorize(ctx, tx, applicationUserID, workspaceID, false)
		if err != nil {
			return err
		}
		if err := protectLastAdmin(acc.workspace, acc.member); err != nil {
			return err
		}
		if err := acc.member.Deactivate(); err != nil {
			return err
		}
		if err := tx.Memberships().UpdateMembership(ctx, acc.member); err != nil {
			return err
		}
		track(acc.member)
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("member left workspace", slog.String("workspace_id", workspaceID.String()))
	return nil
}

// mutate runs an admin-only change against the membership of userID.
func (s *MembershipService) mutate(
	ctx context.Context,
	applicationUserID string,
	workspaceID, userID idx.ID,
	change func(ws *domain.Workspace, m *domain.UserWorkspace) error,
) (*domain.UserWorkspace, error) {
	var target *domain.UserWorkspace
	err := s.transact(ctx, func(tx store.Tx, track Track) error {
		acc, err := authorize(ctx, tx, applicationUserID, workspaceID, true)
		if err != nil {
			return err
		}
		if !acc.workspace.IsActive() {
			return ErrWorkspaceInactive
		}

		var ok bool
		if target, ok = acc.workspace.Membership(userID); !ok {
			return ErrMembershipNotFound
		}
		if err := change(acc.workspace, target); err != nil {
			return err
		}
		if err := tx.Memberships().UpdateMembership(ctx, target); err != nil {
			return err
		}
		track(target)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("membership updated",
		slog.String("workspace_id", workspaceID.String()),
		slog.String("user_id", userID.String()),
		slog.String("role", target.Role().String()),
		slog.Bool("active", target.IsActive()),
	)
	return target, nil
}
