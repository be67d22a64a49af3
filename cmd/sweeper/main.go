// The sweeper runs the retention and token-expiry purges on a schedule for
// deployments that want a hard storage bound instead of relying purely on
// the lazy sweeps in the request path.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/markusthomas/wiremagnet/config"
	"github.com/markusthomas/wiremagnet/internal/infrastructure/postgres"
	ctxlog "github.com/markusthomas/wiremagnet/internal/log"
	"github.com/markusthomas/wiremagnet/internal/maintenance"
	"github.com/markusthomas/wiremagnet/internal/metrics"
)

// Hourly is plenty: the bounds being enforced are 24h and 48h windows.
const cronSpec = "@hourly"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	metrics.Register()

	leadRepo := postgres.NewLeadRepository(pool, logger)
	if err := leadRepo.DetectCapabilities(ctx); err != nil {
		log.Fatalf("detect schema capabilities: %v", err)
	}
	tokenRepo := postgres.NewTokenRepository(pool)

	sweeper := maintenance.NewSweeper(leadRepo, tokenRepo, logger)

	// One pass immediately so a crashed-and-restarted sweeper catches up.
	sweeper.Sweep(ctx)

	if err := sweeper.Start(ctx, cronSpec); err != nil {
		log.Fatalf("sweeper: %v", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
