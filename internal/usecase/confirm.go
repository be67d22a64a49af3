package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/metrics"
	"github.com/markusthomas/wiremagnet/internal/repository"
)

// Confirmation drives a pending lead to confirmed. The transition happens
// once: confirming clears the token, so replaying the same link finds no
// match and reports NotFound.
type Confirmation struct {
	leads      repository.LeadRepository
	dispatcher downloadDispatcher
	logger     *slog.Logger

	baseURL     string
	redirectURL string
}

func NewConfirmation(leads repository.LeadRepository, dispatcher downloadDispatcher, logger *slog.Logger, baseURL, redirectURL string) *Confirmation {
	return &Confirmation{
		leads:       leads,
		dispatcher:  dispatcher,
		logger:      logger.With("component", "confirmation"),
		baseURL:     strings.TrimRight(baseURL, "/"),
		redirectURL: redirectURL,
	}
}

// Confirm redeems a confirmation token: flips the lead to confirmed, clears
// the token, and triggers the deferred download email. Returns the redirect
// target for the browser.
func (c *Confirmation) Confirm(ctx context.Context, rawToken string) (string, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return "", domain.ErrNotFound
	}

	lead, err := c.leads.FindByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("find lead by confirmation token: %w", err)
	}

	if err := c.leads.MarkConfirmed(ctx, lead.ID); err != nil {
		return "", fmt.Errorf("mark confirmed: %w", err)
	}
	metrics.ConfirmationsTotal.Inc()

	// The confirmation itself succeeded; a failed download send is logged
	// but does not turn the redirect into an error page.
	if err := c.dispatcher.Dispatch(ctx, lead.Email, lead.MagnetID, lead.ID, lead.FieldName); err != nil {
		c.logger.ErrorContext(ctx, "send download email after confirmation",
			"lead_id", lead.ID, "error", err)
	}

	if c.redirectURL != "" {
		return c.redirectURL, nil
	}
	return c.baseURL + "/?success=1", nil
}
