package router

import (
	"net/http"
	"time"

	"github.com/NomadCrew/customer-feedback-portal/config"
	"github.com/NomadCrew/customer-feedback-portal/handlers"
	"github.com/NomadCrew/customer-feedback-portal/logger"
	"github.com/NomadCrew/customer-feedback-portal/middleware"
	"github.com/NomadCrew/customer-feedback-portal/services"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config          *config.Config
	FeedbackHandler *handlers.FeedbackHandler
	HealthHandler   *handlers.HealthHandler
	// RateLimiter is nil when Redis is not configured.
	RateLimiter services.RateLimiterInterface
	// MetricsHandler defaults to the default Prometheus registry.
	MetricsHandler http.Handler
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.Default()

	if err := r.SetTrustedProxies(deps.Config.Server.TrustedProxies); err != nil {
		logger.GetLogger().Warnw("Invalid trusted proxy configuration, ignoring", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware(deps.Config))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	metrics := deps.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(metrics))

	submitLimit := func(c *gin.Context) { c.Next() }
	if deps.RateLimiter != nil {
		window := time.Duration(deps.Config.RateLimit.WindowSeconds) * time.Second
		submitLimit = middleware.SubmissionRateLimiter(deps.RateLimiter, deps.Config.RateLimit.SubmissionsPerWindow, window)
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.HostIdentity(deps.Config.Server.HostJWTSecret))
	{
		forms := v1.Group("/forms")
		{
			forms.POST("", deps.FeedbackHandler.OpenForm)
			forms.GET("/options", deps.FeedbackHandler.GetOptions)
			forms.GET("/:id", deps.FeedbackHandler.GetForm)
			forms.PATCH("/:id", deps.FeedbackHandler.UpdateForm)
			forms.DELETE("/:id", deps.FeedbackHandler.CloseForm)
			forms.POST("/:id/submit", submitLimit, deps.FeedbackHandler.SubmitForm)
		}

		v1.POST("/feedback", submitLimit, deps.FeedbackHandler.SubmitFeedback)
	}

	return r
}
