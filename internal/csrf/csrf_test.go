package csrf

import (
	"testing"
	"time"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestIssueVerifyRoundTrip(t *testing.T) {
	s := NewService(testKey)

	sessionID, token, err := s.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if sessionID == "" || token == "" {
		t.Fatal("issue returned empty credential")
	}

	if err := s.Verify(token, sessionID); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsSessionMismatch(t *testing.T) {
	s := NewService(testKey)

	_, token, err := s.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := s.Verify(token, "some-other-session"); err == nil {
		t.Fatal("expected verification failure for foreign session")
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	sessionID, token, err := NewService(testKey).Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewService([]byte("ffffffffffffffffffffffffffffffff"))
	if err := other.Verify(token, sessionID); err == nil {
		t.Fatal("expected verification failure under a different key")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	s := NewService(testKey)

	issued := time.Now()
	s.now = func() time.Time { return issued }

	sessionID, token, err := s.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	s.now = func() time.Time { return issued.Add(tokenTTL + time.Minute) }
	if err := s.Verify(token, sessionID); err == nil {
		t.Fatal("expected verification failure after expiry")
	}
}

func TestVerifyRejectsEmptyInputs(t *testing.T) {
	s := NewService(testKey)

	if err := s.Verify("", "session"); err == nil {
		t.Fatal("expected failure for empty token")
	}
	if err := s.Verify("token", ""); err == nil {
		t.Fatal("expected failure for empty session")
	}
}
