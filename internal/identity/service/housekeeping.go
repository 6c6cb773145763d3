package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tenancy/internal/identity/domain"
	"github.com/aussiebroadwan/tenancy/internal/identity/metrics"
	"github.com/aussiebroadwan/tenancy/internal/identity/store"
	"github.com/aussiebroadwan/tenancy/pkg/slogx"
)

const (
	DefaultHousekeepingInterval = time.Hour
	DefaultOutboxRetention      = 7 * 24 * time.Hour
	expireBatchSize             = 200
)

// HousekeepingService periodically expires overdue invitations and purges
// delivered outbox messages so neither table grows without bound.
type HousekeepingService struct {
	Store           store.Store
	Events          *EventDispatcher
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
	Interval        time.Duration
	OutboxRetention time.Duration
	Clock           domain.Clock

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, events *EventDispatcher, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}

	return &HousekeepingService{
		Store:           st,
		Events:          events,
		Metrics:         m,
		Logger:          logger,
		Interval:        interval,
		OutboxRetention: DefaultOutboxRetention,
		Clock:           domain.SystemClock,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup runs each task independently; a failure in one does not skip the
// other.
func (s *HousekeepingService) cleanup() {
	ctx := slogx.WithContext(context.Background(), s.Logger)
	s.Logger.Info("starting housekeeping cleanup")

	expired, expireErr := s.ExpireInvitations(ctx)
	if expireErr != nil {
		s.Logger.Error("failed to expire overdue invitations", slogx.Err(expireErr))
	}

	purged, purgeErr := s.PurgeOutbox(ctx)
	if purgeErr != nil {
		s.Logger.Error("failed to purge published outbox messages", slogx.Err(purgeErr))
	}

	err := errors.Join(expireErr, purgeErr)
	s.Metrics.HousekeepingRun(err)
	s.Logger.Info("housekeeping cleanup completed",
		slog.Int("invitations_expired", expired),
		slog.Int64("outbox_purged", purged),
		slog.Bool("ok", err == nil),
	)
}

// ExpireInvitations moves pending invitations past their expiry to Expired,
// one batch per transaction, and returns how many it changed.
func (s *HousekeepingService) ExpireInvitations(ctx context.Context) (int, error) {
	total := 0
	for {
		n := 0
		err := s.Events.Transact(ctx, s.Store, func(tx store.Tx, track Track) error {
			overdue, err := tx.Invitations().ListOverdue(ctx, s.Clock(), expireBatchSize)
			if err != nil {
				return err
			}
			for _, inv := range overdue {
				if err := inv.Expire(); err != nil {
					return err
				}
				if err := tx.Invitations().UpdateInvitation(ctx, inv); err != nil {
					return err
				}
				track(inv)
			}
			n = len(overdue)
			return nil
		})
		if err != nil {
			return total, err
		}

		total += n
		s.Metrics.InvitationsExpired(n)
		if n < expireBatchSize {
			return total, nil
		}
	}
}

// PurgeOutbox deletes messages published longer ago than OutboxRetention.
func (s *HousekeepingService) PurgeOutbox(ctx context.Context) (int64, error) {
	return s.Store.Outbox().DeletePublishedBefore(ctx, s.Clock().Add(-s.OutboxRetention))
}
