package repository

import (
	"context"

	"github.com/markusthomas/wiremagnet/internal/domain"
)

type MagnetRepository interface {
	FindByID(ctx context.Context, magnetID int64) (*domain.Magnet, error)

	// FindFile resolves the file record for one (magnet, field) pair.
	// Returns domain.ErrNotFound when the magnet has no such field.
	FindFile(ctx context.Context, magnetID int64, fieldName string) (*domain.MagnetFile, error)
}
