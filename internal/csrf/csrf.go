// Package csrf issues and verifies the anti-forgery credential a form must
// present on submission. The credential is a short-lived HS256 JWT bound to
// a per-browser session ID delivered as a cookie, so a stolen token is
// useless without the matching cookie.
package csrf

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenTTL = 2 * time.Hour

// CookieName is the session cookie the credential is bound to.
const CookieName = "wm_session"

type Service struct {
	key []byte
	now func() time.Time
}

func NewService(key []byte) *Service {
	return &Service{key: key, now: time.Now}
}

// Issue mints a fresh session ID and a token bound to it. The caller sets
// the session ID as a cookie and hands the token to the form.
func (s *Service) Issue() (sessionID, token string, err error) {
	sessionID = uuid.NewString()
	token, err = s.IssueForSession(sessionID)
	return sessionID, token, err
}

// IssueForSession mints a token for an existing session cookie.
func (s *Service) IssueForSession(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sid": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// Verify checks signature, expiry and the session binding.
func (s *Service) Verify(token, sessionID string) error {
	if token == "" || sessionID == "" {
		return errors.New("missing credential")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return errors.New("invalid credential")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid claims")
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid != sessionID {
		return errors.New("session mismatch")
	}
	return nil
}
