package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/transport/http/handler"
)

type fakeExport struct {
	list     func(ctx context.Context) ([]*domain.Lead, error)
	writeCSV func(ctx context.Context, w io.Writer) error
}

func (f *fakeExport) List(ctx context.Context) ([]*domain.Lead, error) {
	return f.list(ctx)
}

func (f *fakeExport) WriteCSV(ctx context.Context, w io.Writer) error {
	return f.writeCSV(ctx, w)
}

func newAdminEngine(uc *fakeExport) *gin.Engine {
	h := handler.NewAdminHandler(uc, testLogger())
	r := gin.New()
	r.GET("/admin/leads", h.ListLeads)
	r.GET("/admin/leads/export", h.ExportCSV)
	return r
}

func TestListLeads_ReturnsJSON(t *testing.T) {
	uc := &fakeExport{
		list: func(_ context.Context) ([]*domain.Lead, error) {
			return []*domain.Lead{
				{ID: 7, Email: "a@example.com", MagnetID: 5, FieldName: "lead_file",
					CreatedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
					Confirmed: true, DownloadCount: 2},
			}, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	newAdminEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"a@example.com"`) || !strings.Contains(body, `"download_count":2`) {
		t.Errorf("unexpected body %q", body)
	}
}

func TestListLeads_RepoError_Returns500(t *testing.T) {
	uc := &fakeExport{
		list: func(_ context.Context) ([]*domain.Lead, error) {
			return nil, errors.New("db down")
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/leads", nil)
	newAdminEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestExportCSV_SetsDownloadHeaders(t *testing.T) {
	uc := &fakeExport{
		writeCSV: func(_ context.Context, w io.Writer) error {
			_, err := w.Write(append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,email\n")...))
			return err
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/leads/export", nil)
	newAdminEngine(uc).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "leads_export_") || !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("export body must start with a UTF-8 BOM")
	}
}
