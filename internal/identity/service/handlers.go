package service

import (
	"context"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
)

// RegisterHandlers subscribes the in-process reactions of the identity
// service to d.
func RegisterHandlers(d *EventDispatcher) {
	d.Subscribe(domain.EventWorkspaceDeactivated, expireInvitationsOfClosedWorkspace)
}

// expireInvitationsOfClosedWorkspace stops invitations to a deactivated
// workspace from being redeemed or listed.
func expireInvitationsOfClosedWorkspace(ctx context.Context, tx store.Tx, track Track, ev domain.DomainEvent) error {
	closed, ok := ev.(domain.WorkspaceDeactivated)
	if !ok {
		return nil
	}

	pending, err := tx.Invitations().ListPendingByWorkspace(ctx, closed.WorkspaceID)
	if err != nil {
		return err
	}
	for _, inv := range pending {
		if err := inv.Expire(); err != nil {
			return err
		}
		if err := tx.Invitations().UpdateInvitation(ctx, inv); err != nil {
			return err
		}
		track(inv)
	}
	return nil
}
