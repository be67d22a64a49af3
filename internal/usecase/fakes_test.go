package usecase_test

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/email"
	"github.com/markusthomas/wiremagnet/internal/repository"
	"github.com/markusthomas/wiremagnet/internal/usecase"
)

// ---- fakes ----

type fakeLeadRepo struct {
	create                  func(ctx context.Context, input repository.CreateLeadInput) (int64, error)
	hasRecentSubmission     func(ctx context.Context, email string, magnetID int64, fieldName string, since time.Time) (bool, error)
	findByConfirmationToken func(ctx context.Context, token string) (*domain.Lead, error)
	markConfirmed           func(ctx context.Context, leadID int64) error
	incrementDownloadCount  func(ctx context.Context, leadID int64) error
	purgeUnconfirmed        func(ctx context.Context, cutoff time.Time) (int64, error)
	listNewestFirst         func(ctx context.Context, limit int) ([]*domain.Lead, error)
}

func (r *fakeLeadRepo) Create(ctx context.Context, input repository.CreateLeadInput) (int64, error) {
	return r.create(ctx, input)
}

func (r *fakeLeadRepo) HasRecentSubmission(ctx context.Context, email string, magnetID int64, fieldName string, since time.Time) (bool, error) {
	if r.hasRecentSubmission == nil {
		return false, nil
	}
	return r.hasRecentSubmission(ctx, email, magnetID, fieldName, since)
}

func (r *fakeLeadRepo) FindByConfirmationToken(ctx context.Context, token string) (*domain.Lead, error) {
	return r.findByConfirmationToken(ctx, token)
}

func (r *fakeLeadRepo) MarkConfirmed(ctx context.Context, leadID int64) error {
	return r.markConfirmed(ctx, leadID)
}

func (r *fakeLeadRepo) IncrementDownloadCount(ctx context.Context, leadID int64) error {
	if r.incrementDownloadCount == nil {
		return nil
	}
	return r.incrementDownloadCount(ctx, leadID)
}

func (r *fakeLeadRepo) PurgeUnconfirmedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.purgeUnconfirmed == nil {
		return 0, nil
	}
	return r.purgeUnconfirmed(ctx, cutoff)
}

func (r *fakeLeadRepo) ListNewestFirst(ctx context.Context, limit int) ([]*domain.Lead, error) {
	return r.listNewestFirst(ctx, limit)
}

type fakeTokenRepo struct {
	create        func(ctx context.Context, token *domain.DownloadToken) error
	findByToken   func(ctx context.Context, token string) (*domain.DownloadToken, error)
	deleteExpired func(ctx context.Context, now time.Time) (int64, error)
}

func (r *fakeTokenRepo) Create(ctx context.Context, token *domain.DownloadToken) error {
	return r.create(ctx, token)
}

func (r *fakeTokenRepo) FindByToken(ctx context.Context, token string) (*domain.DownloadToken, error) {
	return r.findByToken(ctx, token)
}

func (r *fakeTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if r.deleteExpired == nil {
		return 0, nil
	}
	return r.deleteExpired(ctx, now)
}

type fakeMagnetRepo struct {
	findByID func(ctx context.Context, magnetID int64) (*domain.Magnet, error)
	findFile func(ctx context.Context, magnetID int64, fieldName string) (*domain.MagnetFile, error)
}

func (r *fakeMagnetRepo) FindByID(ctx context.Context, magnetID int64) (*domain.Magnet, error) {
	return r.findByID(ctx, magnetID)
}

func (r *fakeMagnetRepo) FindFile(ctx context.Context, magnetID int64, fieldName string) (*domain.MagnetFile, error) {
	return r.findFile(ctx, magnetID, fieldName)
}

type fakeFileStore struct {
	open func(ctx context.Context, key string) (io.ReadCloser, error)
}

func (s *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.open(ctx, key)
}

func (s *fakeFileStore) Put(_ context.Context, _ string, _ io.Reader, _ string) error {
	return nil
}

type fakeSender struct {
	send func(ctx context.Context, msg email.Message) error
}

func (s *fakeSender) Send(ctx context.Context, msg email.Message) error {
	if s.send == nil {
		return nil
	}
	return s.send(ctx, msg)
}

type fakeCSRF struct {
	verify func(token, sessionID string) error
}

func (f *fakeCSRF) Verify(token, sessionID string) error {
	if f.verify == nil {
		return nil
	}
	return f.verify(token, sessionID)
}

type fakeVault struct {
	issue  func(ctx context.Context, magnetID, leadID int64, fieldName string) (*domain.DownloadToken, error)
	redeem func(ctx context.Context, raw string) (*domain.DownloadToken, error)
}

func (v *fakeVault) Issue(ctx context.Context, magnetID, leadID int64, fieldName string) (*domain.DownloadToken, error) {
	return v.issue(ctx, magnetID, leadID, fieldName)
}

func (v *fakeVault) Redeem(ctx context.Context, raw string) (*domain.DownloadToken, error) {
	return v.redeem(ctx, raw)
}

type fakeGuard struct {
	evaluate func(ctx context.Context, sub usecase.Submission) error
}

func (g *fakeGuard) Evaluate(ctx context.Context, sub usecase.Submission) error {
	if g.evaluate == nil {
		return nil
	}
	return g.evaluate(ctx, sub)
}

type fakeDispatcher struct {
	dispatch func(ctx context.Context, emailAddr string, magnetID, leadID int64, fieldName string) error
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, emailAddr string, magnetID, leadID int64, fieldName string) error {
	if d.dispatch == nil {
		return nil
	}
	return d.dispatch(ctx, emailAddr, magnetID, leadID, fieldName)
}

// ---- helpers ----

func readCloser(content string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(content)))
}
