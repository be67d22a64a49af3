package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/usecase"
)

var hexToken = regexp.MustCompile(`^[0-9a-f]+$`)

func TestTokenVault_IssueStoresHighEntropyTokenWith24hExpiry(t *testing.T) {
	var captured *domain.DownloadToken
	repo := &fakeTokenRepo{
		create: func(_ context.Context, token *domain.DownloadToken) error {
			captured = token
			return nil
		},
	}

	vault := usecase.NewTokenVault(repo, slog.Default())

	before := time.Now()
	token, err := vault.Issue(context.Background(), 5, 42, "lead_file")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured == nil {
		t.Fatal("token was not stored")
	}
	// 16 random bytes hex-encoded: 32 chars, 128 bits of entropy.
	if len(token.Token) != 32 || !hexToken.MatchString(token.Token) {
		t.Errorf("token %q is not 32 hex chars", token.Token)
	}
	if token.MagnetID != 5 || token.LeadID != 42 || token.FieldName != "lead_file" {
		t.Errorf("token carries wrong identity: %+v", token)
	}

	ttl := token.ExpiresAt.Sub(before)
	if ttl < 23*time.Hour+59*time.Minute || ttl > 24*time.Hour+time.Minute {
		t.Errorf("expiry window is %s, want 24h", ttl)
	}
}

func TestTokenVault_IssueSweepsExpiredBeforeInsert(t *testing.T) {
	var order []string
	repo := &fakeTokenRepo{
		deleteExpired: func(_ context.Context, _ time.Time) (int64, error) {
			order = append(order, "sweep")
			return 3, nil
		},
		create: func(_ context.Context, _ *domain.DownloadToken) error {
			order = append(order, "create")
			return nil
		},
	}

	vault := usecase.NewTokenVault(repo, slog.Default())

	if _, err := vault.Issue(context.Background(), 1, 1, "lead_file"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 2 || order[0] != "sweep" || order[1] != "create" {
		t.Fatalf("expected sweep before create, got %v", order)
	}
}

func TestTokenVault_IssueTokensAreUnique(t *testing.T) {
	seen := map[string]bool{}
	repo := &fakeTokenRepo{
		create: func(_ context.Context, token *domain.DownloadToken) error {
			if seen[token.Token] {
				t.Fatalf("duplicate token issued: %s", token.Token)
			}
			seen[token.Token] = true
			return nil
		},
	}

	vault := usecase.NewTokenVault(repo, slog.Default())
	for range 100 {
		if _, err := vault.Issue(context.Background(), 1, 1, "lead_file"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestTokenVault_RedeemWithinWindow(t *testing.T) {
	repo := &fakeTokenRepo{
		findByToken: func(_ context.Context, raw string) (*domain.DownloadToken, error) {
			return &domain.DownloadToken{
				Token:     raw,
				MagnetID:  5,
				LeadID:    42,
				FieldName: "lead_file",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}

	vault := usecase.NewTokenVault(repo, slog.Default())

	token, err := vault.Redeem(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.MagnetID != 5 || token.LeadID != 42 {
		t.Errorf("wrong token identity: %+v", token)
	}
}

func TestTokenVault_RedeemExpiredIsNotFound(t *testing.T) {
	// The row still exists physically; only the window has passed.
	repo := &fakeTokenRepo{
		findByToken: func(_ context.Context, raw string) (*domain.DownloadToken, error) {
			return &domain.DownloadToken{
				Token:     raw,
				ExpiresAt: time.Now().Add(-time.Second),
			}, nil
		},
	}

	vault := usecase.NewTokenVault(repo, slog.Default())

	_, err := vault.Redeem(context.Background(), "abc123")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenVault_RedeemUnknownIsNotFound(t *testing.T) {
	repo := &fakeTokenRepo{
		findByToken: func(_ context.Context, _ string) (*domain.DownloadToken, error) {
			return nil, domain.ErrNotFound
		},
	}

	vault := usecase.NewTokenVault(repo, slog.Default())

	_, err := vault.Redeem(context.Background(), "never-issued")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenVault_RedeemDoesNotConsumeToken(t *testing.T) {
	// Redemption is a lookup, not a delete: the same token keeps working
	// inside its window.
	lookups := 0
	repo := &fakeTokenRepo{
		findByToken: func(_ context.Context, raw string) (*domain.DownloadToken, error) {
			lookups++
			return &domain.DownloadToken{Token: raw, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}

	vault := usecase.NewTokenVault(repo, slog.Default())
	for range 3 {
		if _, err := vault.Redeem(context.Background(), "abc123"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if lookups != 3 {
		t.Fatalf("expected 3 lookups, got %d", lookups)
	}
}
