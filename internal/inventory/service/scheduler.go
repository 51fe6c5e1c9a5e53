package service

import (
	"context"
	"sync"
	"time"

	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/logger"
)

// Sweeper is the part of InventoryService the scheduler drives
type Sweeper interface {
	SweepExpiryAlerts(ctx context.Context) (int, error)
}

// AlertScheduler periodically sweeps for expiry warnings. Stock alerts are
// announced when stock changes; expiry warnings appear with the passage of
// time alone, so something has to look.
type AlertScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewAlertScheduler creates a new alert scheduler
func NewAlertScheduler(sweeper Sweeper, interval time.Duration, log *logger.Logger) *AlertScheduler {
	return &AlertScheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   log,
	}
}

// Start runs an initial sweep and then one per interval until ctx is
// cancelled or Stop is called.
func (s *AlertScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("alert scheduler started")

		s.runSweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("alert scheduler stopped")
				return
			case <-ticker.C:
				s.runSweep(ctx)
			}
		}
	}()
}

// Stop stops the scheduler and waits for the running sweep to finish
func (s *AlertScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *AlertScheduler) runSweep(ctx context.Context) {
	start := time.Now()
	announced, err := s.sweeper.SweepExpiryAlerts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry alert sweep failed")
		return
	}
	s.logger.Debug().
		Dur("duration", time.Since(start)).
		Int("announced", announced).
		Msg("expiry alert sweep completed")
}

// expirySweep remembers which expiry warnings were already announced, by
// alert id and fingerprint.
type expirySweep struct {
	mu     sync.Mutex
	primed bool
	seen   map[string]string
}

// SweepExpiryAlerts announces expiry warnings that are new or changed priority
// since the previous sweep. The first sweep only records the current set.
func (s *InventoryService) SweepExpiryAlerts(ctx context.Context) (int, error) {
	active, err := s.GetActiveAlerts(ctx)
	if err != nil {
		return 0, err
	}

	s.sweep.mu.Lock()
	defer s.sweep.mu.Unlock()

	current := make(map[string]string)
	var fresh []domain.InventoryAlert
	for _, a := range active {
		if a.Type != domain.AlertExpiryWarning {
			continue
		}
		current[a.ID] = a.Fingerprint
		if s.sweep.primed && s.sweep.seen[a.ID] != a.Fingerprint {
			fresh = append(fresh, a)
		}
	}
	s.sweep.seen = current
	s.sweep.primed = true

	for _, a := range fresh {
		s.announce(ctx, a)
	}
	return len(fresh), nil
}
