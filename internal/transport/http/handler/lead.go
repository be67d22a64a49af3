package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markusthomas/wiremagnet/internal/csrf"
	"github.com/markusthomas/wiremagnet/internal/domain"
	"github.com/markusthomas/wiremagnet/internal/usecase"
)

// intakeUsecaser is the subset of the intake usecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type intakeUsecaser interface {
	Submit(ctx context.Context, sub usecase.Submission, clientIP string) (*usecase.IntakeResult, error)
}

type LeadHandler struct {
	intake intakeUsecaser
	csrf   *csrf.Service
	logger *slog.Logger
}

func NewLeadHandler(intake intakeUsecaser, csrfSvc *csrf.Service, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		intake: intake,
		csrf:   csrfSvc,
		logger: logger.With("component", "lead_handler"),
	}
}

// GET /lead-form
// Hands the form renderer its anti-forgery credential: a session cookie
// plus a token bound to it.
func (h *LeadHandler) FormToken(c *gin.Context) {
	sessionID, err := c.Cookie(csrf.CookieName)
	if err != nil || sessionID == "" {
		var token string
		sessionID, token, err = h.csrf.Issue()
		if err != nil {
			h.logger.Error("issue csrf token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
			return
		}
		c.SetCookie(csrf.CookieName, sessionID, 0, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"csrf_token": token})
		return
	}

	token, err := h.csrf.IssueForSession(sessionID)
	if err != nil {
		h.logger.Error("issue csrf token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}

type submitRequest struct {
	Email     string `json:"email" form:"email"`
	MagnetID  int64  `json:"magnet_id" form:"magnet_id"`
	FieldName string `json:"field_name" form:"magnet_field_name"`
	Consent   bool   `json:"consent" form:"privacy"`
	// Honeypot: hidden from humans, filled by bots.
	Website   string `json:"website" form:"website"`
	CSRFToken string `json:"csrf_token" form:"csrf_token"`
}

type submitResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// POST /leads
// Accepts JSON or classic form posts.
func (h *LeadHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errInvalidInput})
		return
	}

	sessionID, _ := c.Cookie(csrf.CookieName)

	result, err := h.intake.Submit(c.Request.Context(), usecase.Submission{
		Email:     req.Email,
		MagnetID:  req.MagnetID,
		FieldName: req.FieldName,
		Consent:   req.Consent,
		Honeypot:  req.Website,
		CSRFToken: req.CSRFToken,
		SessionID: sessionID,
	}, c.ClientIP())
	if err != nil {
		status, msg := rejectionResponse(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("submit lead", "error", err)
		}
		c.JSON(status, gin.H{"success": false, "error": msg})
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		Success:  true,
		Message:  result.Message,
		Redirect: result.Redirect,
	})
}

func rejectionResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusForbidden, errInvalidToken
	case errors.Is(err, domain.ErrSpamDetected):
		return http.StatusBadRequest, errSpamDetected
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errInvalidInput
	case errors.Is(err, domain.ErrConsentRequired):
		return http.StatusBadRequest, errConsentRequired
	case errors.Is(err, domain.ErrDisposableEmail):
		return http.StatusBadRequest, errDisposableEmail
	case errors.Is(err, domain.ErrDuplicateSubmission):
		return http.StatusConflict, errDuplicate
	case errors.Is(err, domain.ErrMailSend):
		return http.StatusBadGateway, errMailSend
	default:
		return http.StatusInternalServerError, errInternalServer
	}
}
