// Package api exposes the verification workflow over HTTP.
package api

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/datastore"
	"github.com/tradesentry/fraudwatch-go/internal/errors"
	"github.com/tradesentry/fraudwatch-go/internal/logging"
	"github.com/tradesentry/fraudwatch-go/internal/workflow"
)

const (
	cacheDefaultExpiration = 30 * time.Second
	cacheCleanupInterval   = 5 * time.Minute
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	DS       datastore.Interface
	Workflow *workflow.Controller
	Settings *conf.Settings

	entityCache *gocache.Cache
	apiLogger   *slog.Logger
	registry    *prometheus.Registry
}

// Option customizes the Controller.
type Option func(*Controller)

// WithMetricsRegistry mounts /metrics backed by the given registry.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(c *Controller) { c.registry = registry }
}

// New creates the API controller and registers its routes on e.
func New(e *echo.Echo, ds datastore.Interface, wf *workflow.Controller, settings *conf.Settings, opts ...Option) *Controller {
	c := &Controller{
		Echo:        e,
		DS:          ds,
		Workflow:    wf,
		Settings:    settings,
		entityCache: gocache.New(cacheDefaultExpiration, cacheCleanupInterval),
		apiLogger:   logging.ForService("api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiLogger == nil {
		c.apiLogger = slog.Default()
	}

	c.Group = e.Group("/api/v1")
	c.Group.Use(middleware.Recover())
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.GET("/healthz", c.Health)
	if c.registry != nil && c.Settings.Metrics.Enabled {
		c.Group.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))
	}

	c.Group.POST("/announcements", c.CreateAnnouncement)
	c.Group.GET("/announcements", c.ListAnnouncements)
	c.Group.GET("/announcements/:id", c.GetAnnouncement)
	c.Group.POST("/announcements/:id/evidence", c.SubmitAnnouncementEvidence)
	c.Group.POST("/announcements/:id/verify", c.VerifyAnnouncement)
	c.Group.POST("/announcements/:id/score/preview", c.PreviewAnnouncementScore)
	c.Group.GET("/announcements/:id/history", c.GetAnnouncementHistory)
	c.Group.GET("/announcements/:id/alerts", c.GetAlerts)
	c.Group.POST("/announcements/:id/alerts", c.SendAlert)

	c.Group.POST("/tips", c.CreateTip)
	c.Group.GET("/tips", c.ListTips)
	c.Group.GET("/tips/:id", c.GetTip)
	c.Group.POST("/tips/:id/evidence", c.SubmitTipEvidence)
	c.Group.POST("/tips/:id/score/preview", c.PreviewTipScore)
	c.Group.GET("/tips/:id/history", c.GetTipHistory)
	c.Group.POST("/tips/:id/activities/:activityId", c.LinkTipToActivity)

	c.Group.POST("/activities", c.CreateActivity)
	c.Group.GET("/activities", c.ListActivities)
	c.Group.GET("/activities/:id", c.GetActivity)
}

// Health reports liveness.
func (c *Controller) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown releases controller resources.
func (c *Controller) Shutdown() {
	if c.entityCache != nil {
		c.entityCache.Flush()
	}
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// statusFromError maps error categories to HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsConflict(err):
		return http.StatusConflict
	case errors.IsPreconditionFailed(err):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the error envelope and logs the failure.
func (c *Controller) HandleError(ctx echo.Context, err error, message string) error {
	code := statusFromError(err)
	resp := &ErrorResponse{
		Error:         err.Error(),
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}

	c.apiLogger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", err.Error(),
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP())

	return ctx.JSON(code, resp)
}
