package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/email"
	"github.com/markusthomas/wiremagnet/internal/ipanon"
	"github.com/markusthomas/wiremagnet/internal/metrics"
	"github.com/markusthomas/wiremagnet/internal/repository"
)

type submissionGuard interface {
	Evaluate(ctx context.Context, sub Submission) error
}

type downloadDispatcher interface {
	Dispatch(ctx context.Context, emailAddr string, magnetID, leadID int64, fieldName string) error
}

// IntakeResult is the success acknowledgement handed back to the submitter.
type IntakeResult struct {
	Message  string
	Redirect string
}

// Intake orchestrates a submission: guard checks, lead creation, then
// either the double-opt-in confirmation email or the download email.
type Intake struct {
	guard      submissionGuard
	leads      repository.LeadRepository
	dispatcher downloadDispatcher
	sender     email.Sender
	logger     *slog.Logger

	enableDOI      bool
	anonymizeIP    bool
	baseURL        string
	redirectURL    string
	confirmSubject string
	confirmBody    string
}

type IntakeOptions struct {
	EnableDOI      bool
	AnonymizeIP    bool
	BaseURL        string
	RedirectURL    string
	ConfirmSubject string
	ConfirmBody    string
}

func NewIntake(
	guard submissionGuard,
	leads repository.LeadRepository,
	dispatcher downloadDispatcher,
	sender email.Sender,
	logger *slog.Logger,
	opts IntakeOptions,
) *Intake {
	return &Intake{
		guard:          guard,
		leads:          leads,
		dispatcher:     dispatcher,
		sender:         sender,
		logger:         logger.With("component", "intake"),
		enableDOI:      opts.EnableDOI,
		anonymizeIP:    opts.AnonymizeIP,
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		redirectURL:    opts.RedirectURL,
		confirmSubject: opts.ConfirmSubject,
		confirmBody:    opts.ConfirmBody,
	}
}

// Submit runs the full intake flow for one submission. clientIP is the raw
// remote address; it is anonymized here, before persistence, when the
// operator enabled that.
func (i *Intake) Submit(ctx context.Context, sub Submission, clientIP string) (*IntakeResult, error) {
	sub.Normalize()

	if err := i.guard.Evaluate(ctx, sub); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(rejectionOutcome(err)).Inc()
		return nil, err
	}

	ip := clientIP
	if i.anonymizeIP {
		ip = ipanon.Anonymize(ip)
	}

	if i.enableDOI {
		if err := i.startConfirmation(ctx, sub, ip); err != nil {
			return nil, err
		}
	} else {
		leadID, err := i.leads.Create(ctx, repository.CreateLeadInput{
			Email:     sub.Email,
			MagnetID:  sub.MagnetID,
			FieldName: sub.FieldName,
			IPAddress: ip,
			Confirmed: true,
		})
		if err != nil {
			metrics.SubmissionsTotal.WithLabelValues("storage_error").Inc()
			return nil, fmt.Errorf("create lead: %w", err)
		}

		if err := i.dispatcher.Dispatch(ctx, sub.Email, sub.MagnetID, leadID, sub.FieldName); err != nil {
			metrics.SubmissionsTotal.WithLabelValues("mail_error").Inc()
			return nil, err
		}
	}

	metrics.SubmissionsTotal.WithLabelValues("accepted").Inc()
	return &IntakeResult{
		Message:  "Thanks! Please check your email for the download link.",
		Redirect: i.redirectURL,
	}, nil
}

// startConfirmation persists the lead as pending and mails the confirmation
// link. The lead stays persisted even when the send fails; operators handle
// that by resend or re-submission.
func (i *Intake) startConfirmation(ctx context.Context, sub Submission, ip string) error {
	token, err := newToken(confirmationTokenBytes)
	if err != nil {
		return err
	}

	_, err = i.leads.Create(ctx, repository.CreateLeadInput{
		Email:             sub.Email,
		MagnetID:          sub.MagnetID,
		FieldName:         sub.FieldName,
		IPAddress:         ip,
		Confirmed:         false,
		ConfirmationToken: &token,
	})
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("storage_error").Inc()
		return fmt.Errorf("create pending lead: %w", err)
	}

	link := i.baseURL + "/lead-confirm/" + token
	msg := email.Message{
		To:      sub.Email,
		Subject: i.confirmSubject,
		Body:    strings.ReplaceAll(i.confirmBody, "{link}", link),
	}
	if err := i.sender.Send(ctx, msg); err != nil {
		metrics.EmailsSentTotal.WithLabelValues("confirmation", "error").Inc()
		metrics.SubmissionsTotal.WithLabelValues("mail_error").Inc()
		return fmt.Errorf("%w: %s", domain.ErrMailSend, err)
	}

	metrics.EmailsSentTotal.WithLabelValues("confirmation", "ok").Inc()
	return nil
}

func rejectionOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrSpamDetected):
		return "spam"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrConsentRequired):
		return "consent_required"
	case errors.Is(err, domain.ErrDisposableEmail):
		return "disposable_email"
	case errors.Is(err, domain.ErrDuplicateSubmission):
		return "duplicate"
	default:
		return "storage_error"
	}
}
