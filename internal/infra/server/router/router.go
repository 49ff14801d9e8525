// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/insights/internal/integration/entrypoint/controller"
	"github.com/finance-tracker/insights/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine               *gin.Engine
	healthController     *controller.HealthController
	insightsController   *controller.InsightsController
	sessionController    *controller.SessionController
	recomputeRateLimiter *middleware.RateLimiter
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	insightsController *controller.InsightsController,
	sessionController *controller.SessionController,
	recomputeRateLimiter *middleware.RateLimiter,
) *Router {
	return &Router{
		healthController:     healthController,
		insightsController:   insightsController,
		sessionController:    sessionController,
		recomputeRateLimiter: recomputeRateLimiter,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else if environment == "test" {
		gin.SetMode(gin.TestMode)
	}

	// Create router with default middleware (logger and recovery)
	r.engine = gin.Default()

	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	v1 := r.engine.Group("/api/v1")

	if r.insightsController == nil {
		return
	}

	insights := v1.Group("/insights")
	insights.Use(middleware.UserContext())
	{
		insights.GET("/summary", r.insightsController.GetSummary)
		insights.GET("/chart", r.insightsController.GetChart)
		insights.GET("/balances", r.insightsController.GetBalances)
		insights.GET("/cumulative", r.insightsController.GetCumulative)

		if r.sessionController != nil {
			sessions := insights.Group("/sessions")
			{
				sessions.POST("", r.recomputeLimit(), r.sessionController.Create)
				sessions.GET("/:id", r.sessionController.Get)
				sessions.GET("/:id/events", r.sessionController.Events)
				sessions.POST("/:id/recompute", r.recomputeLimit(), r.sessionController.Recompute)
				sessions.DELETE("/:id", r.sessionController.Delete)
			}
		}
	}
}

func (r *Router) recomputeLimit() gin.HandlerFunc {
	if r.recomputeRateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.recomputeRateLimiter.Middleware()
}
