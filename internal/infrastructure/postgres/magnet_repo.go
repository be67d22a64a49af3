package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/markusthomas/wiremagnet/internal/domain"
)

type MagnetRepository struct {
	pool *pgxpool.Pool
}

func NewMagnetRepository(pool *pgxpool.Pool) *MagnetRepository {
	return &MagnetRepository{pool: pool}
}

func (r *MagnetRepository) FindByID(ctx context.Context, magnetID int64) (*domain.Magnet, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, title, viewable, created_at FROM magnets WHERE id = $1`,
		magnetID,
	)

	var m domain.Magnet
	err := row.Scan(&m.ID, &m.Title, &m.Viewable, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan magnet: %w", err)
	}
	return &m, nil
}

func (r *MagnetRepository) FindFile(ctx context.Context, magnetID int64, fieldName string) (*domain.MagnetFile, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT magnet_id, field_name, storage_key, file_name, content_type, size_bytes
		 FROM magnet_files WHERE magnet_id = $1 AND field_name = $2`,
		magnetID, fieldName,
	)

	var f domain.MagnetFile
	err := row.Scan(&f.MagnetID, &f.FieldName, &f.StorageKey, &f.FileName, &f.ContentType, &f.SizeBytes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan magnet file: %w", err)
	}
	return &f, nil
}
