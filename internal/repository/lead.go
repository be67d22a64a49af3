package repository

import (
	"context"
	"time"

	"github.com/markusthomas/wiremagnet/internal/domain"
)

// CreateLeadInput carries everything the store needs to insert a lead.
// IPAddress must already be anonymized by the caller when anonymization
// is enabled; the store never re-derives it.
type CreateLeadInput struct {
	Email             string
	MagnetID          int64
	FieldName         string
	IPAddress         string
	Confirmed         bool
	ConfirmationToken *string
}

// Usecases depend on the interface, not the pgx implementation, so tests can
// inject fakes and the storage engine stays swappable.
type LeadRepository interface {
	Create(ctx context.Context, input CreateLeadInput) (int64, error)

	// HasRecentSubmission reports whether a lead with the same
	// (email, magnetID, fieldName) was created after since, regardless of
	// confirmation state.
	HasRecentSubmission(ctx context.Context, email string, magnetID int64, fieldName string, since time.Time) (bool, error)

	FindByConfirmationToken(ctx context.Context, token string) (*domain.Lead, error)

	// MarkConfirmed flips the lead to confirmed and clears the confirmation
	// token in a single statement.
	MarkConfirmed(ctx context.Context, leadID int64) error

	IncrementDownloadCount(ctx context.Context, leadID int64) error

	// PurgeUnconfirmedOlderThan removes pending leads created before cutoff.
	// Called lazily from Create and on a schedule by the sweeper.
	PurgeUnconfirmedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// ListNewestFirst returns up to limit leads ordered by creation time
	// descending; limit <= 0 means no limit. Feeds the admin list and the
	// CSV export.
	ListNewestFirst(ctx context.Context, limit int) ([]*domain.Lead, error)
}
