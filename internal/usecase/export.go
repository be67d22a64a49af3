package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/repository"
)

// adminListLimit caps the JSON listing; the CSV export is unbounded.
const adminListLimit = 500

var exportHeader = []string{
	"id", "email", "magnet_id", "magnet_field_name", "created_at",
	"ip_address", "confirmed", "confirmation_token", "download_count",
}

// Export produces the operator views over captured leads.
type Export struct {
	leads repository.LeadRepository
}

func NewExport(leads repository.LeadRepository) *Export {
	return &Export{leads: leads}
}

// List returns the newest leads for the admin listing.
func (e *Export) List(ctx context.Context) ([]*domain.Lead, error) {
	leads, err := e.leads.ListNewestFirst(ctx, adminListLimit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// WriteCSV streams a full snapshot: UTF-8 with BOM, header row, one row per
// lead, newest first.
func (e *Export) WriteCSV(ctx context.Context, w io.Writer) error {
	leads, err := e.leads.ListNewestFirst(ctx, 0)
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}

	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, l := range leads {
		confirmed := "0"
		if l.Confirmed {
			confirmed = "1"
		}
		token := ""
		if l.ConfirmationToken != nil {
			token = *l.ConfirmationToken
		}

		row := []string{
			strconv.FormatInt(l.ID, 10),
			l.Email,
			strconv.FormatInt(l.MagnetID, 10),
			l.FieldName,
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			l.IPAddress,
			confirmed,
			token,
			strconv.FormatInt(l.DownloadCount, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
