package repository

import (
	"context"
	"time"

	"github.com/markusthomas/wiremagnet/internal/domain"
)

type TokenRepository interface {
	Create(ctx context.Context, token *domain.DownloadToken) error

	// FindByToken returns domain.ErrNotFound when no row matches. Expiry is
	// checked by the caller so that unknown and expired tokens stay
	// indistinguishable at the boundary.
	FindByToken(ctx context.Context, token string) (*domain.DownloadToken, error)

	// DeleteExpired removes every token whose expiry is before now. Run
	// lazily before each issuance and on a schedule by the sweeper.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
