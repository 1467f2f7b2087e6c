// Package api implements the version 1 JSON endpoints: voice detection and
// analysis history.
package api

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/callguard/internal/analysis"
	"github.com/tphakala/callguard/internal/datastore"
	"github.com/tphakala/callguard/internal/logger"
)

// DefaultAllowedFormats are accepted when no list is configured.
var DefaultAllowedFormats = []string{"wav", "mp3", "flac"}

// Analyzer runs one analysis. *analysis.Pipeline implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Report, error)
}

// Dispatcher receives finished reports for history and publishing.
type Dispatcher interface {
	Dispatch(r *analysis.Report)
}

// Controller manages the API routes and handlers
type Controller struct {
	Group           *echo.Group
	analyzer        Analyzer
	store           datastore.Store
	dispatcher      Dispatcher // nil when no follow-up actions are configured
	allowedFormats  []string
	analysisTimeout time.Duration
	logger          logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore sets the history store backing the analyses endpoints.
func WithStore(s datastore.Store) Option {
	return func(c *Controller) {
		if s != nil {
			c.store = s
		}
	}
}

// WithDispatcher hands every report to d after the response is built.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Controller) { c.dispatcher = d }
}

// WithAllowedFormats restricts the accepted audio formats.
func WithAllowedFormats(formats []string) Option {
	return func(c *Controller) {
		if len(formats) == 0 {
			return
		}
		c.allowedFormats = make([]string, 0, len(formats))
		for _, f := range formats {
			c.allowedFormats = append(c.allowedFormats, strings.ToLower(f))
		}
	}
}

// WithAnalysisTimeout bounds every pipeline run. Zero disables the deadline.
func WithAnalysisTimeout(d time.Duration) Option {
	return func(c *Controller) { c.analysisTimeout = d }
}

// WithLogger overrides the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates the controller and registers its routes on g.
func New(g *echo.Group, analyzer Analyzer, opts ...Option) *Controller {
	c := &Controller{
		Group:          g,
		analyzer:       analyzer,
		store:          datastore.NoopStore{},
		allowedFormats: DefaultAllowedFormats,
		logger:         GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initRoutes()
	return c
}

// GetLogger returns the v1 API logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("api.v1")
}

func (c *Controller) initRoutes() {
	c.Group.POST("/voice-detection", c.DetectVoice)
	c.Group.GET("/analyses", c.ListAnalyses)
	c.Group.GET("/analyses/:id", c.GetAnalysis)
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Status        string `json:"status"`
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	errorStr := message
	if err != nil {
		errorStr = err.Error()
	}

	return &ErrorResponse{
		Status:        "error",
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a short random identifier for error tracking
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

// HandleError writes a standardized error response and logs it
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)
	if rid := ctx.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
		errorResp.CorrelationID = rid
	}

	fields := []logger.Field{
		logger.String("correlation_id", errorResp.CorrelationID),
		logger.String("message", message),
		logger.Int("code", code),
		logger.String("path", ctx.Request().URL.Path),
		logger.String("method", ctx.Request().Method),
		logger.String("ip", ctx.RealIP()),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}

	log := c.logger.WithContext(ctx.Request().Context())
	if code >= http.StatusInternalServerError {
		log.Error("API error", fields...)
	} else {
		log.Warn("API client error", fields...)
	}

	return ctx.JSON(code, errorResp)
}
