package domain

import (
	"errors"
	"time"
)

// Rejection reasons surfaced verbatim to the submitter. NotFound deliberately
// covers malformed, unknown and expired tokens alike so callers cannot probe
// token validity.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrSpamDetected        = errors.New("spam detected")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConsentRequired     = errors.New("consent required")
	ErrDisposableEmail     = errors.New("disposable email rejected")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrMailSend            = errors.New("mail send failed")
	ErrNotFound            = errors.New("not found")
)

// Lead is a captured email submission for one magnet field.
// A pending lead (Confirmed=false) always carries a confirmation token;
// the token is cleared exactly once, when the lead is confirmed.
type Lead struct {
	ID                int64
	Email             string
	MagnetID          int64
	FieldName         string
	CreatedAt         time.Time
	IPAddress         string
	Confirmed         bool
	ConfirmationToken *string
	DownloadCount     int64
}

// DownloadToken grants time-limited access to one magnet file. LeadID is
// attribution for the download counter, not ownership: sweeping an expired
// token never touches the lead.
type DownloadToken struct {
	ID        int64
	Token     string
	MagnetID  int64
	FieldName string
	LeadID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Redeemable reports whether the token is still inside its validity window.
func (t *DownloadToken) Redeemable(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

// Magnet is the gated resource a lead requests. Viewable gates public
// download access the same way the hosting CMS would.
type Magnet struct {
	ID        int64
	Title     string
	Viewable  bool
	CreatedAt time.Time
}

// MagnetFile maps one (magnet, field) pair to a stored file.
type MagnetFile struct {
	MagnetID    int64
	FieldName   string
	StorageKey  string
	FileName    string
	ContentType string
	SizeBytes   int64
}
