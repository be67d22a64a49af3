package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/markusthomas/wiremagnet/config"
	"github.com/markusthomas/wiremagnet/internal/csrf"
	"github.com/markusthomas/wiremagnet/internal/email"
	"github.com/markusthomas/wiremagnet/internal/health"
	"github.com/markusthomas/wiremagnet/internal/infrastructure/postgres"
	ctxlog "github.com/markusthomas/wiremagnet/internal/log"
	"github.com/markusthomas/wiremagnet/internal/metrics"
	"github.com/markusthomas/wiremagnet/internal/storage"
	httptransport "github.com/markusthomas/wiremagnet/internal/transport/http"
	"github.com/markusthomas/wiremagnet/internal/transport/http/handler"
	"github.com/markusthomas/wiremagnet/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}

	fileStore, err := newFileStore(ctx, cfg)
	if err != nil {
		stop()
		log.Fatalf("storage: %v", err)
	}

	// Repositories
	leadRepo := postgres.NewLeadRepository(pool, logger)
	if err := leadRepo.DetectCapabilities(ctx); err != nil {
		stop()
		log.Fatalf("detect schema capabilities: %v", err)
	}
	tokenRepo := postgres.NewTokenRepository(pool)
	magnetRepo := postgres.NewMagnetRepository(pool)

	// Collaborators
	sender := email.NewSender(cfg, logger)
	csrfSvc := csrf.NewService([]byte(cfg.CSRFSecret))

	// Core engine
	vault := usecase.NewTokenVault(tokenRepo, logger)
	guard := usecase.NewGuard(csrfSvc, leadRepo, cfg.BlockedDomainList())
	dispatcher := usecase.NewDispatcher(vault, leadRepo, magnetRepo, fileStore, sender, logger,
		cfg.AttachFile, cfg.PublicBaseURL, usecase.DeliveryTemplates{
			Subject:      cfg.EmailSubject,
			LinkBody:     cfg.DownloadEmailBody,
			AttachedBody: cfg.DownloadEmailBodyAttached,
		})
	intake := usecase.NewIntake(guard, leadRepo, dispatcher, sender, logger, usecase.IntakeOptions{
		EnableDOI:      cfg.EnableDOI,
		AnonymizeIP:    cfg.AnonymizeIP,
		BaseURL:        cfg.PublicBaseURL,
		RedirectURL:    cfg.RedirectURL,
		ConfirmSubject: cfg.ConfirmEmailSubject,
		ConfirmBody:    cfg.ConfirmEmailBody,
	})
	confirmation := usecase.NewConfirmation(leadRepo, dispatcher, logger, cfg.PublicBaseURL, cfg.DOIRedirectURL)
	download := usecase.NewDownload(vault, leadRepo, magnetRepo, fileStore, logger)
	export := usecase.NewExport(leadRepo)

	// Handlers
	leadHandler := handler.NewLeadHandler(intake, csrfSvc, logger)
	confirmHandler := handler.NewConfirmHandler(confirmation, logger)
	downloadHandler := handler.NewDownloadHandler(download, logger)
	adminHandler := handler.NewAdminHandler(export, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger,
			leadHandler, confirmHandler, downloadHandler, adminHandler, cfg.AdminToken),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	if cfg.StorageDriver == "s3" {
		return storage.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region)
	}
	return storage.NewLocalStore(cfg.LocalStorageDir)
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
