package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/repository"
)

type LeadRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	// Schema capability flags, resolved once in DetectCapabilities. Installs
	// that predate the confirmed/download_count columns keep working with
	// those features degraded.
	hasConfirmed     bool
	hasDownloadCount bool
}

func NewLeadRepository(pool *pgxpool.Pool, logger *slog.Logger) *LeadRepository {
	return &LeadRepository{
		pool:             pool,
		logger:           logger.With("component", "lead_repo"),
		hasConfirmed:     true,
		hasDownloadCount: true,
	}
}

// DetectCapabilities probes the leads_archive schema once so per-request code
// never has to. Must be called before the repository serves traffic.
func (r *LeadRepository) DetectCapabilities(ctx context.Context) error {
	rows, err := r.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_name = 'leads_archive' AND column_name IN ('confirmed', 'download_count')`,
	)
	if err != nil {
		return fmt.Errorf("probe leads_archive columns: %w", err)
	}
	defer rows.Close()

	r.hasConfirmed, r.hasDownloadCount = false, false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan column name: %w", err)
		}
		switch name {
		case "confirmed":
			r.hasConfirmed = true
		case "download_count":
			r.hasDownloadCount = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("probe leads_archive columns: %w", err)
	}

	if !r.hasConfirmed || !r.hasDownloadCount {
		r.logger.Warn("legacy leads_archive schema detected",
			"has_confirmed", r.hasConfirmed,
			"has_download_count", r.hasDownloadCount)
	}
	return nil
}

func (r *LeadRepository) Create(ctx context.Context, input repository.CreateLeadInput) (int64, error) {
	// Lazy retention: stale unconfirmed rows are purged before every insert,
	// so they never accumulate unbounded without a background job.
	if _, err := r.PurgeUnconfirmedOlderThan(ctx, time.Now().Add(-48*time.Hour)); err != nil {
		return 0, err
	}

	var id int64
	var err error
	if r.hasConfirmed {
		err = r.pool.QueryRow(ctx,
			`INSERT INTO leads_archive (email, magnet_id, magnet_field_name, ip_address, confirmed, confirmation_token)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			input.Email, input.MagnetID, input.FieldName, input.IPAddress, input.Confirmed, input.ConfirmationToken,
		).Scan(&id)
	} else {
		err = r.pool.QueryRow(ctx,
			`INSERT INTO leads_archive (email, magnet_id, magnet_field_name, ip_address)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			input.Email, input.MagnetID, input.FieldName, input.IPAddress,
		).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}

	// Audit line: email, magnet, field. No further PII.
	r.logger.InfoContext(ctx, "new lead",
		"email", input.Email, "magnet_id", input.MagnetID, "field_name", input.FieldName)

	return id, nil
}

func (r *LeadRepository) HasRecentSubmission(ctx context.Context, email string, magnetID int64, fieldName string, since time.Time) (bool, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads_archive
		 WHERE email = $1 AND magnet_id = $2 AND magnet_field_name = $3 AND created_at > $4`,
		email, magnetID, fieldName, since,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count recent submissions: %w", err)
	}
	return count > 0, nil
}

func (r *LeadRepository) FindByConfirmationToken(ctx context.Context, token string) (*domain.Lead, error) {
	if !r.hasConfirmed {
		return nil, domain.ErrNotFound
	}

	row := r.pool.QueryRow(ctx,
		r.selectColumns()+` FROM leads_archive WHERE confirmation_token = $1`,
		token,
	)
	return r.scanLead(row)
}

func (r *LeadRepository) MarkConfirmed(ctx context.Context, leadID int64) error {
	if !r.hasConfirmed {
		return nil
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE leads_archive SET confirmed = TRUE, confirmation_token = NULL WHERE id = $1`,
		leadID,
	)
	if err != nil {
		return fmt.Errorf("mark lead confirmed: %w", err)
	}
	return nil
}

func (r *LeadRepository) IncrementDownloadCount(ctx context.Context, leadID int64) error {
	if !r.hasDownloadCount || leadID == 0 {
		return nil
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE leads_archive SET download_count = download_count + 1 WHERE id = $1`,
		leadID,
	)
	if err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}

func (r *LeadRepository) PurgeUnconfirmedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if !r.hasConfirmed {
		return 0, nil
	}

	tag, err := r.pool.Exec(ctx,
		`DELETE FROM leads_archive WHERE confirmed = FALSE AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("purge unconfirmed leads: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *LeadRepository) ListNewestFirst(ctx context.Context, limit int) ([]*domain.Lead, error) {
	query := r.selectColumns() + ` FROM leads_archive ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		lead, err := r.scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

func (r *LeadRepository) selectColumns() string {
	cols := `SELECT id, email, magnet_id, magnet_field_name, created_at, ip_address`
	if r.hasConfirmed {
		cols += `, confirmed, confirmation_token`
	} else {
		cols += `, TRUE, NULL`
	}
	if r.hasDownloadCount {
		cols += `, download_count`
	} else {
		cols += `, 0`
	}
	return cols
}

func (r *LeadRepository) scanLead(row pgx.Row) (*domain.Lead, error) {
	var l domain.Lead
	var ip *string
	err := row.Scan(&l.ID, &l.Email, &l.MagnetID, &l.FieldName, &l.CreatedAt, &ip,
		&l.Confirmed, &l.ConfirmationToken, &l.DownloadCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	if ip != nil {
		l.IPAddress = *ip
	}
	return &l, nil
}
