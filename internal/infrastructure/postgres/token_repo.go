package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/markusthomas/wiremagnet/internal/domain"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.DownloadToken) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lead_tokens (token, magnet_id, magnet_field_name, lead_id, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		token.Token, token.MagnetID, token.FieldName, token.LeadID, token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert download token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByToken(ctx context.Context, token string) (*domain.DownloadToken, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, token, magnet_id, magnet_field_name, lead_id, created_at, expires_at
		 FROM lead_tokens WHERE token = $1`,
		token,
	)

	var t domain.DownloadToken
	err := row.Scan(&t.ID, &t.Token, &t.MagnetID, &t.FieldName, &t.LeadID, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan download token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lead_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
