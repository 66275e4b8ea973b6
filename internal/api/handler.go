package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medflow-backend/internal/mw"
	"medflow-backend/internal/shell"
	"medflow-backend/internal/supervisor"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	shell   *shell.Shell
	desk    *supervisor.Desk
	db      *gorm.DB
	webpush *webpush.Options
	loc     *time.Location
	logger  *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(sh *shell.Shell, desk *supervisor.Desk, db *gorm.DB, webpushOptions *webpush.Options, loc *time.Location, logger *slog.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		shell:   sh,
		desk:    desk,
		db:      db,
		webpush: webpushOptions,
		loc:     loc,
		logger:  logger.With("component", "api"),
	}
}

// fromForm reports whether the request came from an HTML form. Those
// clients get a redirect back to the page instead of JSON.
func fromForm(c *gin.Context) bool {
	return mw.FromForm(c)
}

// respond answers form clients with a 303 to the page and API clients
// with body.
func respond(c *gin.Context, status int, body any) {
	if fromForm(c) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(status, body)
}

// fail answers form clients with a 303 carrying the message and API
// clients with a JSON error.
func fail(c *gin.Context, status int, msg string) {
	if fromForm(c) {
		c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(msg))
		return
	}
	c.JSON(status, gin.H{"error": msg})
}
