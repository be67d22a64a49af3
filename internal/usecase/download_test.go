package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/storage"
	"github.com/markusthomas/wiremagnet/internal/usecase"
)

func redeemableToken() *domain.DownloadToken {
	return &domain.DownloadToken{
		Token:     "abcd1234",
		MagnetID:  5,
		LeadID:    42,
		FieldName: "lead_file",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestDownload_RedeemStreamsFileAndCounts(t *testing.T) {
	var counted int64
	vault := &fakeVault{
		redeem: func(_ context.Context, raw string) (*domain.DownloadToken, error) {
			if raw != "abcd1234" {
				t.Errorf("redeemed %q", raw)
			}
			return redeemableToken(), nil
		},
	}
	leads := &fakeLeadRepo{
		incrementDownloadCount: func(_ context.Context, leadID int64) error {
			counted = leadID
			return nil
		},
	}
	magnets := &fakeMagnetRepo{findByID: viewableMagnet, findFile: guideFile}
	files := &fakeFileStore{
		open: func(_ context.Context, key string) (io.ReadCloser, error) {
			if key != "magnets/5/guide.pdf" {
				t.Errorf("opened %q", key)
			}
			return readCloser("%PDF-1.4 demo"), nil
		},
	}

	d := usecase.NewDownload(vault, leads, magnets, files, slog.Default())

	dl, err := d.Redeem(context.Background(), " abcd1234 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer dl.Content.Close()

	if dl.FileName != "guide.pdf" || dl.ContentType != "application/pdf" {
		t.Errorf("got %q %q", dl.FileName, dl.ContentType)
	}
	if counted != 42 {
		t.Errorf("counted lead %d, want 42", counted)
	}
}

func TestDownload_UnknownTokenIsNotFound(t *testing.T) {
	vault := &fakeVault{
		redeem: func(_ context.Context, _ string) (*domain.DownloadToken, error) {
			return nil, domain.ErrNotFound
		},
	}

	d := usecase.NewDownload(vault, &fakeLeadRepo{}, &fakeMagnetRepo{}, &fakeFileStore{}, slog.Default())

	if _, err := d.Redeem(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownload_EmptyTokenIsNotFound(t *testing.T) {
	d := usecase.NewDownload(&fakeVault{}, &fakeLeadRepo{}, &fakeMagnetRepo{}, &fakeFileStore{}, slog.Default())

	if _, err := d.Redeem(context.Background(), "   "); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownload_HiddenMagnetIsNotFound(t *testing.T) {
	vault := &fakeVault{
		redeem: func(_ context.Context, _ string) (*domain.DownloadToken, error) {
			return redeemableToken(), nil
		},
	}
	magnets := &fakeMagnetRepo{
		findByID: func(_ context.Context, magnetID int64) (*domain.Magnet, error) {
			return &domain.Magnet{ID: magnetID, Viewable: false}, nil
		},
	}

	d := usecase.NewDownload(vault, &fakeLeadRepo{}, magnets, &fakeFileStore{}, slog.Default())

	if _, err := d.Redeem(context.Background(), "abcd1234"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownload_MissingStoredFileIsNotFound(t *testing.T) {
	vault := &fakeVault{
		redeem: func(_ context.Context, _ string) (*domain.DownloadToken, error) {
			return redeemableToken(), nil
		},
	}
	magnets := &fakeMagnetRepo{findByID: viewableMagnet, findFile: guideFile}
	files := &fakeFileStore{
		open: func(_ context.Context, _ string) (io.ReadCloser, error) {
			return nil, storage.ErrNotFound
		},
	}

	d := usecase.NewDownload(vault, &fakeLeadRepo{}, magnets, files, slog.Default())

	if _, err := d.Redeem(context.Background(), "abcd1234"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDownload_CountFailureDoesNotBlockFile(t *testing.T) {
	vault := &fakeVault{
		redeem: func(_ context.Context, _ string) (*domain.DownloadToken, error) {
			return redeemableToken(), nil
		},
	}
	leads := &fakeLeadRepo{
		incrementDownloadCount: func(_ context.Context, _ int64) error {
			return errors.New("db gone")
		},
	}
	magnets := &fakeMagnetRepo{findByID: viewableMagnet, findFile: guideFile}
	files := &fakeFileStore{
		open: func(_ context.Context, _ string) (io.ReadCloser, error) {
			return readCloser("%PDF-1.4 demo"), nil
		},
	}

	d := usecase.NewDownload(vault, leads, magnets, files, slog.Default())

	dl, err := d.Redeem(context.Background(), "abcd1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dl.Content.Close()
}
