package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"medflow-backend/config"
	"medflow-backend/internal/model"
	"medflow-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(h.logger))
	r.SetHTMLTemplate(Templates(h.loc))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Only record-independent routes are cached.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.NewResponseCache(ttl).Handler()

	resident := mw.RequireRole(h.shell, model.RoleJunior)
	senior := mw.RequireRole(h.shell, model.RoleSenior)

	r.GET("/", h.GetIndex)
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/state", h.GetState)
		api.POST("/role", h.SetRole)
		api.POST("/alert/dismiss", h.DismissAlert)
		api.POST("/actions/:id/toggle", h.ToggleAction)

		api.GET("/resident", h.GetResident)
		api.POST("/resident/vitals", resident, h.PostVitals)
		api.POST("/resident/remarks", resident, h.PostResidentRemark)

		api.GET("/supervisor", h.GetSupervisor)
		api.GET("/interventions", caching, h.GetInterventions)
		api.POST("/supervisor/interventions/:key", senior, h.IssueIntervention)
		api.POST("/supervisor/remarks", senior, h.PostSupervisorRemark)
		api.POST("/supervisor/reports/legal", senior, h.RequestLegalReport)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", caching, h.GetVAPIDPublicKey)
	}

	return r
}
