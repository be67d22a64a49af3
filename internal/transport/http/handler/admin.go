package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/markusthomas/wiremagnet/internal/domain"
)

type exportUsecaser interface {
	List(ctx context.Context) ([]*domain.Lead, error)
	WriteCSV(ctx context.Context, w io.Writer) error
}

type AdminHandler struct {
	export exportUsecaser
	logger *slog.Logger
}

func NewAdminHandler(export exportUsecaser, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		export: export,
		logger: logger.With("component", "admin_handler"),
	}
}

type leadResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	MagnetID      int64     `json:"magnet_id"`
	FieldName     string    `json:"field_name"`
	CreatedAt     time.Time `json:"created_at"`
	IPAddress     string    `json:"ip_address,omitempty"`
	Confirmed     bool      `json:"confirmed"`
	DownloadCount int64     `json:"download_count"`
}

// GET /admin/leads
func (h *AdminHandler) ListLeads(c *gin.Context) {
	leads, err := h.export.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list leads", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, leadResponse{
			ID:            l.ID,
			Email:         l.Email,
			MagnetID:      l.MagnetID,
			FieldName:     l.FieldName,
			CreatedAt:     l.CreatedAt,
			IPAddress:     l.IPAddress,
			Confirmed:     l.Confirmed,
			DownloadCount: l.DownloadCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leads": out})
}

// GET /admin/leads/export
// Full CSV snapshot, newest first, UTF-8 with BOM.
func (h *AdminHandler) ExportCSV(c *gin.Context) {
	filename := fmt.Sprintf("leads_export_%s.csv", time.Now().Format("2006-01-02_15-04"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.export.WriteCSV(c.Request.Context(), c.Writer); err != nil {
		// Headers may already be out; log and drop the connection state as-is.
		h.logger.Error("export leads csv", "error", err)
	}
}
