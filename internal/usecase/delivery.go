package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/email"
	"github.com/markusthomas/wiremagnet/internal/metrics"
	"github.com/markusthomas/wiremagnet/internal/repository"
	"github.com/markusthomas/wiremagnet/internal/storage"
)

// maxAttachBytes caps how large a file may be before attach-mode falls back
// to a download link. Most providers bounce messages well below this.
const maxAttachBytes = 20 << 20

// DeliveryTemplates holds the operator-configured email texts. Bodies
// substitute {link} with the generated URL.
type DeliveryTemplates struct {
	Subject      string
	LinkBody     string
	AttachedBody string
}

// tokenIssuer is the slice of TokenVault the dispatcher needs.
type tokenIssuer interface {
	Issue(ctx context.Context, magnetID, leadID int64, fieldName string) (*domain.DownloadToken, error)
}

// Dispatcher decides how a granted download reaches the lead: attach the
// file to the email directly, or issue a download token and mail the link.
type Dispatcher struct {
	vault   tokenIssuer
	leads   repository.LeadRepository
	magnets repository.MagnetRepository
	files   storage.FileStore
	sender  email.Sender
	logger  *slog.Logger

	attachMode bool
	baseURL    string
	templates  DeliveryTemplates
}

func NewDispatcher(
	vault tokenIssuer,
	leads repository.LeadRepository,
	magnets repository.MagnetRepository,
	files storage.FileStore,
	sender email.Sender,
	logger *slog.Logger,
	attachMode bool,
	baseURL string,
	templates DeliveryTemplates,
) *Dispatcher {
	return &Dispatcher{
		vault:      vault,
		leads:      leads,
		magnets:    magnets,
		files:      files,
		sender:     sender,
		logger:     logger.With("component", "dispatcher"),
		attachMode: attachMode,
		baseURL:    strings.TrimRight(baseURL, "/"),
		templates:  templates,
	}
}

// Dispatch sends the download email. In attach mode the counter is bumped
// at send time because the attachment is the receipt point; in link mode the
// counter moves only when the token is redeemed. A transport failure is
// surfaced as domain.ErrMailSend; the already-persisted lead is not rolled
// back.
func (d *Dispatcher) Dispatch(ctx context.Context, emailAddr string, magnetID, leadID int64, fieldName string) error {
	msg := email.Message{
		To:      emailAddr,
		Subject: d.templates.Subject,
	}

	attached := false
	if d.attachMode {
		attachment, err := d.loadAttachment(ctx, magnetID, fieldName)
		if err != nil {
			// Fall back to link delivery; the file may be missing, not
			// viewable, or too large to attach.
			d.logger.WarnContext(ctx, "attach mode fell back to link",
				"magnet_id", magnetID, "field_name", fieldName, "reason", err)
		} else {
			msg.Attachment = attachment
			msg.Body = d.templates.AttachedBody
			attached = true

			if err := d.leads.IncrementDownloadCount(ctx, leadID); err != nil {
				d.logger.ErrorContext(ctx, "increment download count", "lead_id", leadID, "error", err)
			}
		}
	}

	if !attached {
		token, err := d.vault.Issue(ctx, magnetID, leadID, fieldName)
		if err != nil {
			return fmt.Errorf("issue download token: %w", err)
		}
		link := d.baseURL + "/lead-download/" + token.Token
		msg.Body = strings.ReplaceAll(d.templates.LinkBody, "{link}", link)
	}

	if err := d.sender.Send(ctx, msg); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("download", "error").Inc()
		return fmt.Errorf("%w: %s", domain.ErrMailSend, err)
	}

	metrics.EmailsSentTotal.WithLabelValues("download", "ok").Inc()
	return nil
}

func (d *Dispatcher) loadAttachment(ctx context.Context, magnetID int64, fieldName string) (*email.Attachment, error) {
	magnet, err := d.magnets.FindByID(ctx, magnetID)
	if err != nil {
		return nil, err
	}
	if !magnet.Viewable {
		return nil, domain.ErrNotFound
	}

	file, err := d.magnets.FindFile(ctx, magnetID, fieldName)
	if err != nil {
		return nil, err
	}
	if file.SizeBytes > maxAttachBytes {
		return nil, errors.New("file too large to attach")
	}

	r, err := d.files.Open(ctx, file.StorageKey)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content, err := io.ReadAll(io.LimitReader(r, maxAttachBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file.StorageKey, err)
	}
	if len(content) > maxAttachBytes {
		return nil, errors.New("file too large to attach")
	}

	return &email.Attachment{
		Filename:    file.FileName,
		ContentType: file.ContentType,
		Content:     content,
	}, nil
}
