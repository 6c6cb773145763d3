package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/cryptox"
	"github.com/aussiebroadwan/tenancy/pkg/idx"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

// DefaultInvitationDays is used when an invite request leaves the expiry
// unset.
const DefaultInvitationDays = domain.MaxInvitationDays

type InvitationService struct {
	Deps
}

// InviteRequest describes one invitation. ExpiresInDays of zero selects
// DefaultInvitationDays.
type InviteRequest struct {
	Email         string
	Role          domain.Role
	ExpiresInDays int
}

// Invite creates a pending invitation and returns it with the opaque token
// that redeems it. Only the token's fingerprint is stored, so the token
// cannot be recovered later.
func (s *InvitationService) Invite(
	ctx context.Context,
	applicationUserID string,
	workspaceID idx.ID,
	req InviteRequest,
) (*domain.WorkspaceInvitation, string, error) {
	log := slogx.FromContext(ctx)

	invitee, err := domain.ParseEmail(req.Email)
	if err != nil {
		return nil, "", err
	}
	days := req.ExpiresInDays
	if days == 0 {
		days = DefaultInvitationDays
	}

	token, fingerprint, err := cryptox.NewSecret()
	if err != nil {
		log.Error("failed to generate invitation token", slogx.Err(err))
		return nil, "", err
	}

	var inv *domain.WorkspaceInvitation
	err = s.transact(ctx, func(tx store.Tx, track Track) error {
		// 1. Only admins of an active workspace may invite.
		acc, err := authorize(ctx, tx, applicationUserID, workspaceID, true)
		if err != nil {
			return err
		}
		if !acc.workspace.IsActive() {
			return ErrWorkspaceInactive
		}

		// 2. The invitee must not already be an active member.
		existing, err := tx.Users().GetUserByEmail(ctx, invitee)
		switch {
		case err == nil:
			if m, ok := acc.workspace.Membership(existing.ID()); ok && m.IsActive() {
				return ErrAlreadyMember
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		// 3. At most one live invitation per email. A pending one past its
		// expiry is expired here instead of waiting for housekeeping.
		pending, err := tx.Invitations().ListPendingByWorkspace(ctx, workspaceID)
		if err != nil {
			return err
		}
		for _, p := range pending {
			if p.InviteeEmail() != invitee {
				continue
			}
			if !p.IsExpired() {
				return ErrInvitationPending
			}
			if err := p.Expire(); err != nil {
				return err
			}
			if err := tx.Invitations().UpdateInvitation(ctx, p); err != nil {
				return err
			}
			track(p)
		}

		// 4. Create the invitation carrying the token fingerprint.
		inv, err = domain.NewWorkspaceInvitation(
			workspaceID, invitee, req.Role, days,
			s.options(domain.WithTokenHash(fingerprint))...,
		)
		if err != nil {
			return err
		}
		if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
			return err
		}
		track(inv)
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	log.Info("invitation created",
		slog.String("invitation_id", inv.ID().String()),
		slog.String("workspace_id", workspaceID.String()),
		slog.String("role", inv.Role().String()),
		slog.Time("expires_at", inv.ExpiresAt()),
	)
	return inv, token, nil
}

// Accept redeems token for the caller. The caller's email must match the
// invitee. A previous inactive membership is reactivated with the invited
// role; otherwise a new membership is created. Capacity is checked either
// way.
func (s *InvitationService) Accept(ctx context.Context, applicationUserID, token string) (*domain.UserWorkspace, error) {
	log := slogx.FromContext(ctx)

	var member *domain.UserWorkspace
	err := s.transact(ctx, func(tx store.Tx, track Track) error {
		// 1. Resolve caller and invitation.
		user, err := loadUser(ctx, tx, applicationUserID)
		if err != nil {
			return err
		}
		inv, err := tx.Invitations().GetInvitationByTokenHash(ctx, cryptox.FingerprintToken(token))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}
		if inv.InviteeEmail() != user.Email() {
			log.Warn("invitation redeemed by another account",
				slog.String("invitation_id", inv.ID().String()),
				slog.String("user_id", user.ID().String()),
			)
			return ErrInviteeMismatch
		}

		// 2. Pending and unexpired, enforced by the entity.
		if err := inv.Accept(); err != nil {
			return err
		}

		// 3. Workspace must be active with room for one more.
		ws, err := tx.Workspaces().GetWorkspaceByID(ctx, inv.WorkspaceID())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrWorkspaceNotFound
			}
			return err
		}
		if !ws.IsActive() {
			return ErrWorkspaceInactive
		}

		existing, ok := ws.Membership(user.ID())
		if ok && existing.IsActive() {
			return ErrAlreadyMember
		}
		if !ws.CanAddUser() {
			return ErrWorkspaceFull
		}

		// 4. Create or reactivate the membership.
		if ok {
			member = existing
			if err := member.Activate(); err != nil {
				return err
			}
			if member.Role() != inv.Role() {
				if err := member.ChangeRole(inv.Role()); err != nil {
					return err
				}
			}
			if err := tx.Memberships().UpdateMembership(ctx, member); err != nil {
				return err
			}
		} else {
			if member, err = domain.NewUserWorkspace(user.ID(), ws.ID(), inv.Role(), s.options()...); err != nil {
				return err
			}
			if err := ws.AddMembership(member); err != nil {
				return err
			}
			if err := tx.Memberships().CreateMembership(ctx, member); err != nil {
				return err
			}
		}

		if err := tx.Invitations().UpdateInvitation(ctx, inv); err != nil {
			return err
		}
		track(inv, member)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("invitation accepted",
		slog.String("workspace_id", member.WorkspaceID().String()),
		slog.String("user_id", member.UserID().String()),
	)
	return member, nil
}

// Reject declines an invitation addressed to the caller.
func (s *InvitationService) Reject(ctx context.Context, applicationUserID string, invitationID idx.ID) (*domain.WorkspaceInvitation, error) {
	var inv *domain.WorkspaceInvitation
	err := s.transact(ctx, func(tx store.Tx, track Track) error {
		user, err := loadUser(ctx, tx, applicationUserID)
		if err != nil {
			return err
		}
		if inv, err = tx.Invitations().GetInvitationByID(ctx, invitationID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationNotFound
			}
			return err
		}
		// Other people's invitations are reported as missing.
		if inv.InviteeEmail() != user.Email() {
			return ErrInvitationNotFound
		}
		if err := inv.Reject(); err != nil {
			return err
		}
		if err := tx.Invitations().UpdateInvitation(ctx, inv); err != nil {
			return err
		}
		track(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// ListPending returns the workspace's pending invitations for its admins.
func (s *InvitationService) ListPending(ctx context.Context, applicationUserID string, workspaceID idx.ID) ([]*domain.WorkspaceInvitation, error) {
	if _, err := authorize(ctx, s.Store, applicationUserID, workspaceID, true); err != nil {
		return nil, err
	}
	return s.Store.Invitations().ListPendingByWorkspace(ctx, workspaceID)
}

// ListForInvitee returns the unexpired invitations addressed to the caller.
func (s *InvitationService) ListForInvitee(ctx context.Context, applicationUserID string) ([]*domain.WorkspaceInvitation, error) {
	user, err := loadUser(ctx, s.Store, applicationUserID)
	if err != nil {
		return nil, err
	}
	pending, err := s.Store.Invitations().ListPendingByEmail(ctx, user.Email())
	if err != nil {
		return nil, err
	}

	out := make([]*domain.WorkspaceInvitation, 0, len(pending))
	for _, inv := range pending {
		if !inv.IsExpired() {
			out = append(out, inv)
		}
	}
	return out, nil
}
