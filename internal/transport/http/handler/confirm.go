package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markusthomas/wiremagnet/internal/domain"
)

type confirmUsecaser interface {
	Confirm(ctx context.Context, rawToken string) (string, error)
}

type ConfirmHandler struct {
	confirm confirmUsecaser
	logger  *slog.Logger
}

func NewConfirmHandler(confirm confirmUsecaser, logger *slog.Logger) *ConfirmHandler {
	return &ConfirmHandler{
		confirm: confirm,
		logger:  logger.With("component", "confirm_handler"),
	}
}

// GET /lead-confirm/:token
// Success redirects the browser; any failure is a plain 404.
func (h *ConfirmHandler) Confirm(c *gin.Context) {
	redirect, err := h.confirm.Confirm(c.Request.Context(), c.Param("token"))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Error("confirm lead", "error", err)
		}
		c.String(http.StatusNotFound, "Not Found")
		return
	}

	c.Redirect(http.StatusSeeOther, redirect)
}
