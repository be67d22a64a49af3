package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/metrics"
	"github.com/markusthomas/wiremagnet/internal/repository"
	"github.com/markusthomas/wiremagnet/internal/storage"
)

// tokenRedeemer is the slice of TokenVault the gateway needs.
type tokenRedeemer interface {
	Redeem(ctx context.Context, raw string) (*domain.DownloadToken, error)
}

// FileDownload is a resolved, authorized file ready to stream. The caller
// must close Content.
type FileDownload struct {
	Content     io.ReadCloser
	FileName    string
	ContentType string
	SizeBytes   int64
}

// Download is the public redemption gateway: token in, file stream out.
// Every failure mode collapses to NotFound so the response never reveals
// whether a token was malformed, unknown, or expired.
type Download struct {
	vault   tokenRedeemer
	leads   repository.LeadRepository
	magnets repository.MagnetRepository
	files   storage.FileStore
	logger  *slog.Logger
}

func NewDownload(vault tokenRedeemer, leads repository.LeadRepository, magnets repository.MagnetRepository, files storage.FileStore, logger *slog.Logger) *Download {
	return &Download{
		vault:   vault,
		leads:   leads,
		magnets: magnets,
		files:   files,
		logger:  logger.With("component", "download"),
	}
}

func (d *Download) Redeem(ctx context.Context, rawToken string) (*FileDownload, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return nil, domain.ErrNotFound
	}

	token, err := d.vault.Redeem(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redeem token: %w", err)
	}

	magnet, err := d.magnets.FindByID(ctx, token.MagnetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find magnet: %w", err)
	}
	if !magnet.Viewable {
		return nil, domain.ErrNotFound
	}

	file, err := d.magnets.FindFile(ctx, token.MagnetID, token.FieldName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find magnet file: %w", err)
	}

	content, err := d.files.Open(ctx, file.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", file.StorageKey, err)
	}

	// Counting is best-effort: a failed update must never block the file.
	if err := d.leads.IncrementDownloadCount(ctx, token.LeadID); err != nil {
		d.logger.ErrorContext(ctx, "increment download count", "lead_id", token.LeadID, "error", err)
	}
	metrics.DownloadsTotal.Inc()

	return &FileDownload{
		Content:     content,
		FileName:    file.FileName,
		ContentType: file.ContentType,
		SizeBytes:   file.SizeBytes,
	}, nil
}
