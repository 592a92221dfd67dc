// Package routes defines HTTP routes for the case service.
package routes

import (
	"net/http"
	"time"

	"github.com/conselho-tutelar/atendimento-service/internal/config"
	"github.com/conselho-tutelar/atendimento-service/internal/handlers"
	"github.com/conselho-tutelar/atendimento-service/internal/hub"
	"github.com/conselho-tutelar/atendimento-service/internal/metrics"
	"github.com/conselho-tutelar/atendimento-service/internal/middleware"
	"github.com/conselho-tutelar/atendimento-service/internal/models"
	"github.com/conselho-tutelar/atendimento-service/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Auth   *handlers.AuthHandler
	User   *handlers.UserHandler
	Case   *handlers.CaseHandler
	Stats  *handlers.StatsHandler
	Health *handlers.HealthHandler
}

// Dependencies are the shared components the route guards need.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	AuthService  service.AuthService
	Capabilities *models.CapabilityTable
	Metrics      *metrics.Metrics
	Hub          *hub.Hub
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
}

// Setup configures all HTTP routes for the application.
func Setup(router *gin.Engine, h Handlers, deps Dependencies) {
	cfg := deps.Config

	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(deps.Metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	router.GET("/health", h.Health.Check)
	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	api := router.Group("/api")
	api.Use(middleware.CSRF(middleware.CSRFConfig{AllowedOrigins: cfg.AllowedOrigins}))
	api.POST("/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(deps.AuthService))
	{
		authed.POST("/logout", h.Auth.Logout)
		authed.GET("/me", h.Auth.Me)
		authed.PUT("/me/senha", h.Auth.ChangePassword)
		if deps.Hub != nil {
			authed.GET("/ws", deps.Hub.ServeWS)
		}

		can := func(capability models.Capability) gin.HandlerFunc {
			return middleware.RequireCapability(deps.Capabilities, capability)
		}

		authed.GET("/stats", can(models.CapViewDashboard), h.Stats.Get)

		authed.POST("/register", can(models.CapManageUsers), h.User.Register)
		users := authed.Group("/usuarios")
		{
			users.GET("/conselheiros", can(models.CapConsultCase), h.User.ListCounselors)
			users.GET("", can(models.CapManageUsers), h.User.List)
			users.POST("", can(models.CapManageUsers), h.User.Register)
			users.PUT("/:id", can(models.CapManageUsers), h.User.Update)
			users.DELETE("/:id", can(models.CapManageUsers), h.User.Delete)
			users.PUT("/:id/senha", can(models.CapManageUsers), h.User.ResetPassword)
		}

		cases := authed.Group("/atendimentos")
		{
			cases.POST("", can(models.CapRegisterCase), h.Case.Create)
			cases.GET("", can(models.CapConsultCase), h.Case.List)
			cases.GET("/:id", can(models.CapConsultCase), h.Case.Get)
			cases.PUT("/:id", can(models.CapEditCase), h.Case.Update)
			cases.PUT("/:id/finalizar", can(models.CapFinalizeCase), h.Case.Finalize)
		}
	}
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsCfg.AllowCredentials = true
	corsCfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}
