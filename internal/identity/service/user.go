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

// UserService manages the local profile of identity-provider accounts. The
// application user id is the subject of the caller's access token.
type UserService struct {
	Deps
}

// ProfileUpdate carries the fields to change. Nil fields are left alone.
type ProfileUpdate struct {
	FullName *string
	Email    *string
}

// Register creates the local user for applicationUserID.
func (s *UserService) Register(ctx context.Context, applicationUserID, fullName, email string) (*domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate the value objects before touching the store.
	name, err := domain.ParseFullName(fullName)
	if err != nil {
		return nil, err
	}
	addr, err := domain.ParseEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := domain.NewUser(name, addr, applicationUserID, s.options()...)
	if err != nil {
		return nil, err
	}

	// 2. Reject duplicates with a precise error, then insert.
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByApplicationUserID(ctx, applicationUserID); err == nil {
			return ErrUserAlreadyRegistered
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := tx.Users().GetUserByEmail(ctx, addr); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUserAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserAlreadyRegistered) && !errors.Is(err, ErrEmailTaken) {
			log.Error("failed to register user",
				slog.String("application_user_id", applicationUserID),
				slogx.Err(err),
			)
		}
		return nil, err
	}

	log.Info("user registered",
		slog.String("user_id", user.ID().String()),
		slog.String("application_user_id", applicationUserID),
	)
	return user, nil
}

func (s *UserService) GetByApplicationUserID(ctx context.Context, applicationUserID string) (*domain.User, error) {
	return loadUser(ctx, s.Store, applicationUserID)
}

func (s *UserService) GetByID(ctx context.Context, id idx.ID) (*domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies upd to the caller's profile. Either field failing
// validation leaves the stored profile unchanged.
func (s *UserService) UpdateProfile(ctx context.Context, applicationUserID string, upd ProfileUpdate) (*domain.User, error) {
	var user *domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		if user, err = loadUser(ctx, tx, applicationUserID); err != nil {
			return err
		}

		if upd.FullName != nil {
			if err := user.UpdateFullName(*upd.FullName); err != nil {
				return err
			}
		}
		if upd.Email != nil {
			if err := user.UpdateEmail(*upd.Email); err != nil {
				return err
			}
		}

		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete soft deletes the caller and deactivates their memberships. It
// refuses while the caller is the last active admin of an active workspace.
func (s *UserService) Delete(ctx context.Context, applicationUserID string) error {
	log := slogx.FromContext(ctx)

	var user *domain.User
	err := s.transact(ctx, func(tx store.Tx, track Track) error {
		var err error
		if user, err = loadUser(ctx, tx, applicationUserID); err != nil {
			return err
		}

		for _, m := range user.Memberships() {
			if !m.IsActive() {
				continue
			}
			ws, err := tx.Workspaces().GetWorkspaceByID(ctx, m.WorkspaceID())
			if err != nil {
				return err
			}
			if ws.IsActive() {
				if err := protectLastAdmin(ws, m); err != nil {
					return err
				}
			}
			if err := m.Deactivate(); err != nil {
				return err
			}
			if err := tx.Memberships().UpdateMembership(ctx, m); err != nil {
				return err
			}
			track(m)
		}

		user.SoftDelete()
		return tx.Users().UpdateUser(ctx, user)
	})
	if err != nil {
		return err
	}

	log.Info("user deleted", slog.String("user_id", user.ID().String()))
	return nil
}
