package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/usecase"
)

type downloadUsecaser interface {
	Redeem(ctx context.Context, rawToken string) (*usecase.FileDownload, error)
}

type DownloadHandler struct {
	download downloadUsecaser
	logger   *slog.Logger
}

func NewDownloadHandler(download downloadUsecaser, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{
		download: download,
		logger:   logger.With("component", "download_handler"),
	}
}

// GET /lead-download/:token
// Streams the gated file. Expired and unknown tokens get the same 404.
func (h *DownloadHandler) Download(c *gin.Context) {
	file, err := h.download.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Error("redeem download token", "error", err)
		}
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	defer file.Content.Close()

	size := file.SizeBytes
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, file.ContentType, file.Content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", file.FileName),
	})
}
