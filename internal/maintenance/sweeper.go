// Package maintenance runs the scheduled counterpart of the engine's lazy
// cleanup. The request path already sweeps expired tokens before each
// issuance and purges stale unconfirmed leads before each insert; the
// Sweeper enforces the same bounds on a wall clock for quiet deployments
// where those triggers rarely fire. Each purge is a single DELETE
// statement, so no cross-request locking is introduced.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/markusthomas/wiremagnet/internal/metrics"
	"github.com/markusthomas/wiremagnet/internal/repository"
)

// unconfirmedRetention matches the lazy purge in the lead store: pending
// leads older than this are dropped.
const unconfirmedRetention = 48 * time.Hour

type Sweeper struct {
	leads  repository.LeadRepository
	tokens repository.TokenRepository
	logger *slog.Logger
	cron   *cron.Cron
}

func NewSweeper(leads repository.LeadRepository, tokens repository.TokenRepository, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		leads:  leads,
		tokens: tokens,
		logger: logger.With("component", "sweeper"),
		cron:   cron.New(),
	}
}

// Start registers the sweep on the given cron spec and blocks until ctx is
// cancelled.
func (s *Sweeper) Start(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("sweeper started", "spec", spec)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("sweeper shut down")
	return nil
}

// Sweep runs both purges once.
func (s *Sweeper) Sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := time.Now()

	swept, err := s.tokens.DeleteExpired(sweepCtx, now)
	if err != nil {
		s.logger.Error("delete expired tokens", "error", err)
	} else if swept > 0 {
		metrics.TokensSweptTotal.Add(float64(swept))
		s.logger.Info("swept expired tokens", "count", swept)
	}

	purged, err := s.leads.PurgeUnconfirmedOlderThan(sweepCtx, now.Add(-unconfirmedRetention))
	if err != nil {
		s.logger.Error("purge unconfirmed leads", "error", err)
	} else if purged > 0 {
		metrics.LeadsPurgedTotal.Add(float64(purged))
		s.logger.Info("purged unconfirmed leads", "count", purged)
	}
}
