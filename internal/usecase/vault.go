package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/metrics"
	"github.com/markusthomas/wiremagnet/internal/repository"
)

const (
	// downloadTokenTTL is the fixed validity window; it is never extended.
	downloadTokenTTL = 24 * time.Hour

	downloadTokenBytes     = 16
	confirmationTokenBytes = 32
)

// newToken returns n crypto-random bytes hex-encoded.
func newToken(n int) (string, error) {
	raw := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// TokenVault issues and redeems single-purpose download tokens. A token is
// opaque to its holder and valid for a fixed window; redemption is a lookup
// plus expiry check and does not consume the token, so repeat clicks on an
// emailed link keep working until expiry.
type TokenVault struct {
	tokens repository.TokenRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewTokenVault(tokens repository.TokenRepository, logger *slog.Logger) *TokenVault {
	return &TokenVault{
		tokens: tokens,
		logger: logger.With("component", "token_vault"),
		now:    time.Now,
	}
}

// Issue sweeps expired rows, then stores a fresh high-entropy token with a
// 24h expiry. The sweep is lazy on purpose: the issuer pays the amortized
// cleanup cost instead of a background scheduler.
func (v *TokenVault) Issue(ctx context.Context, magnetID, leadID int64, fieldName string) (*domain.DownloadToken, error) {
	now := v.now()

	swept, err := v.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("sweep expired tokens: %w", err)
	}
	if swept > 0 {
		metrics.TokensSweptTotal.Add(float64(swept))
		v.logger.DebugContext(ctx, "swept expired tokens", "count", swept)
	}

	raw, err := newToken(downloadTokenBytes)
	if err != nil {
		return nil, err
	}

	token := &domain.DownloadToken{
		Token:     raw,
		MagnetID:  magnetID,
		FieldName: fieldName,
		LeadID:    leadID,
		ExpiresAt: now.Add(downloadTokenTTL),
	}
	if err := v.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("store download token: %w", err)
	}

	metrics.TokensIssuedTotal.Inc()
	return token, nil
}

// Redeem looks the token up and checks the expiry window. Unknown and
// expired tokens are both reported as domain.ErrNotFound so a caller cannot
// tell them apart.
func (v *TokenVault) Redeem(ctx context.Context, raw string) (*domain.DownloadToken, error) {
	token, err := v.tokens.FindByToken(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("look up token: %w", err)
	}

	if !token.Redeemable(v.now()) {
		return nil, domain.ErrNotFound
	}
	return token, nil
}
