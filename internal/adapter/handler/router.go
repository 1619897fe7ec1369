package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/meeting-intelligence/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/meeting-intelligence/pkg/config"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Router holds all handlers
type Router struct {
	cfg          *config.Config
	auth         middleware.TokenValidator
	webhook      *BotWebhook
	meeting      *Meeting
	intelligence *Intelligence
	gatherer     prometheus.Gatherer
	checks       map[string]HealthCheck
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, auth middleware.TokenValidator, webhook *BotWebhook, meeting *Meeting, intelligence *Intelligence, gatherer prometheus.Gatherer) *Router {
	return &Router{
		cfg:          cfg,
		auth:         auth,
		webhook:      webhook,
		meeting:      meeting,
		intelligence: intelligence,
		gatherer:     gatherer,
		checks:       map[string]HealthCheck{},
	}
}

// AddHealthCheck registers a dependency probed by /health
func (rt *Router) AddHealthCheck(name string, check HealthCheck) {
	rt.checks[name] = check
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	if rt.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")
	v1.POST("/webhooks/bot", rt.webhook.Handle)

	api := v1.Group("", middleware.EchoAuth(rt.auth))
	rt.setupMeetingRoutes(api)
	rt.setupArtifactRoutes(api)
}

func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings")
	meetings.POST("", rt.meeting.Register)
	meetings.GET("", rt.meeting.List)
	meetings.GET("/:id", rt.meeting.Get)

	meetings.POST("/:id/bot", rt.meeting.ScheduleBot)
	meetings.DELETE("/:id/bot", rt.meeting.CancelBot)
	meetings.GET("/:id/bot", rt.meeting.BotStatus)
}

func (rt *Router) setupArtifactRoutes(g *echo.Group) {
	m := g.Group("/meetings/:id")
	h := rt.intelligence

	m.GET("/transcript", h.GetTranscript)
	m.PUT("/transcript", h.EditTranscript)
	m.GET("/summaries", h.ListSummaries)
	m.POST("/summaries", h.GenerateSummary)
	m.GET("/action-items", h.ListActionItems)
	m.POST("/action-items/extract", h.ExtractActionItems)
	m.GET("/decisions", h.ListDecisions)
	m.POST("/decisions/extract", h.ExtractDecisions)
	m.POST("/followup", h.Followup)
	m.POST("/chat", h.Ask)
	m.GET("/chat", h.ChatHistory)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	return c.JSON(status, map[string]interface{}{
		"status":       overall,
		"environment":  rt.cfg.Environment,
		"dependencies": deps,
	})
}
