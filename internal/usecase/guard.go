package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/badoux/checkmail"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/repository"
)

// duplicateWindow is how long an identical (email, magnet, field) submission
// stays blocked after the first one.
const duplicateWindow = 24 * time.Hour

var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Submission is one intake request as the transport hands it over.
type Submission struct {
	Email     string
	MagnetID  int64
	FieldName string
	Consent   bool
	Honeypot  string

	// Anti-forgery credential plus the session it must be bound to.
	CSRFToken string
	SessionID string
}

// Normalize lower-cases and trims the email so uniqueness and deny-list
// checks see a canonical form.
func (s *Submission) Normalize() {
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.FieldName = strings.TrimSpace(s.FieldName)
}

// csrfVerifier is the subset of the csrf service the guard needs.
type csrfVerifier interface {
	Verify(token, sessionID string) error
}

// Guard runs the anti-abuse checks in a fixed order; the first failure
// short-circuits. It has no side effects beyond reads against the lead
// store.
type Guard struct {
	csrf           csrfVerifier
	leads          repository.LeadRepository
	blockedDomains map[string]struct{}
}

func NewGuard(csrf csrfVerifier, leads repository.LeadRepository, blockedDomains []string) *Guard {
	blocked := make(map[string]struct{}, len(blockedDomains))
	for _, d := range blockedDomains {
		blocked[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return &Guard{csrf: csrf, leads: leads, blockedDomains: blocked}
}

func (g *Guard) Evaluate(ctx context.Context, sub Submission) error {
	if err := g.csrf.Verify(sub.CSRFToken, sub.SessionID); err != nil {
		return domain.ErrInvalidToken
	}

	// A non-empty honeypot means a bot filled the hidden field.
	if sub.Honeypot != "" {
		return domain.ErrSpamDetected
	}

	if checkmail.ValidateFormat(sub.Email) != nil ||
		sub.MagnetID <= 0 ||
		!fieldNamePattern.MatchString(sub.FieldName) {
		return domain.ErrInvalidInput
	}

	if !sub.Consent {
		return domain.ErrConsentRequired
	}

	if g.isDisposable(sub.Email) {
		return domain.ErrDisposableEmail
	}

	since := time.Now().Add(-duplicateWindow)
	recent, err := g.leads.HasRecentSubmission(ctx, sub.Email, sub.MagnetID, sub.FieldName, since)
	if err != nil {
		return fmt.Errorf("check recent submissions: %w", err)
	}
	if recent {
		return domain.ErrDuplicateSubmission
	}

	return nil
}

func (g *Guard) isDisposable(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domainPart := strings.ToLower(email[at+1:])
	_, blocked := g.blockedDomains[domainPart]
	return blocked
}
