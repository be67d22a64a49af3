package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/markusthomas/wiremagnet/internal/transport/http/handler"
	"github.com/markusthomas/wiremagnet/internal/transport/http/middleware"
)

func NewRouter(
	logger *slog.Logger,
	leadHandler *handler.LeadHandler,
	confirmHandler *handler.ConfirmHandler,
	downloadHandler *handler.DownloadHandler,
	adminHandler *handler.AdminHandler,
	adminToken string,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Public intake and redemption surface
	r.GET("/lead-form", leadHandler.FormToken)
	r.POST("/leads", leadHandler.Submit)
	r.GET("/lead-confirm/:token", confirmHandler.Confirm)
	r.GET("/lead-download/:token", downloadHandler.Download)

	// Operator surface
	admin := r.Group("/admin", middleware.AdminAuth(adminToken))
	admin.GET("/leads", adminHandler.ListLeads)
	admin.GET("/leads/export", adminHandler.ExportCSV)

	return r
}
