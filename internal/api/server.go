package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	mw "github.com/tphakala/callguard/internal/api/middleware"
	v1 "github.com/tphakala/callguard/internal/api/v1"
	"github.com/tphakala/callguard/internal/conf"
	"github.com/tphakala/callguard/internal/datastore"
	"github.com/tphakala/callguard/internal/logger"
	"github.com/tphakala/callguard/internal/observability"
)

// CacheSizer reports how many entries the feature cache holds.
type CacheSizer interface {
	Len() int
}

// Server is the main HTTP server for CallGuard.
// It manages the Echo framework instance, middleware, and all HTTP routes.
type Server struct {
	// Core components
	echo   *echo.Echo
	config *Config
	logger logger.Logger

	// Dependencies
	analyzer   v1.Analyzer
	store      datastore.Store
	dispatcher v1.Dispatcher
	cache      CacheSizer
	metrics    *observability.Metrics
	version    string

	// API controller
	apiController *v1.Controller

	// Lifecycle management
	listener  net.Listener
	mu        sync.Mutex
	wg        sync.WaitGroup
	startTime time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the structured logger for the server.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// WithPipeline sets the analyzer behind the detection endpoint.
func WithPipeline(a v1.Analyzer) ServerOption {
	return func(s *Server) {
		s.analyzer = a
	}
}

// WithStore sets the analysis history store.
func WithStore(ds datastore.Store) ServerOption {
	return func(s *Server) {
		s.store = ds
	}
}

// WithDispatcher sets the receiver of finished reports.
func WithDispatcher(d v1.Dispatcher) ServerOption {
	return func(s *Server) {
		s.dispatcher = d
	}
}

// WithFeatureCache reports cache size in the health endpoint.
func WithFeatureCache(c CacheSizer) ServerOption {
	return func(s *Server) {
		s.cache = c
	}
}

// WithMetrics sets the observability metrics for the server.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, opts ...ServerOption) (*Server, error) {
	return NewWithConfig(ConfigFromSettings(settings), opts...)
}

// NewWithConfig creates a server from an explicit Config.
func NewWithConfig(config *Config, opts ...ServerOption) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	s := &Server{
		config:    config,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = GetLogger()
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("an analysis pipeline is required")
	}
	if s.store == nil {
		s.store = datastore.NoopStore{}
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Logger.SetLevel(log.OFF)

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	s.logger.Info("HTTP server initialized",
		logger.String("address", config.Address()),
		logger.String("body_limit", config.BodyLimit),
		logger.Bool("debug", config.Debug))

	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestID())

	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.logger.Module("http"), func(c echo.Context) bool {
		return c.Path() == "/health" || c.Path() == s.config.MetricsPath
	}))

	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}

	securityConfig := mw.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = s.config.AllowedOrigins

	s.echo.Use(mw.NewCORS(securityConfig))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders(securityConfig))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.metrics != nil && s.config.MetricsEnabled {
		s.echo.GET(s.config.MetricsPath, echo.WrapHandler(s.metrics.Handler()))
	}

	middlewares := []echo.MiddlewareFunc{mw.NewAPIKeyAuth(s.config.APIKey)}
	if s.config.RateLimit > 0 {
		middlewares = append(middlewares, mw.NewRateLimiter(s.config.RateLimit, s.config.RateBurst))
	}
	group := s.echo.Group("/api/v1", middlewares...)

	opts := []v1.Option{
		v1.WithStore(s.store),
		v1.WithAllowedFormats(s.config.AllowedFormats),
		v1.WithAnalysisTimeout(s.config.AnalysisTimeout),
		v1.WithLogger(s.logger.Module("v1")),
	}
	if s.dispatcher != nil {
		opts = append(opts, v1.WithDispatcher(s.dispatcher))
	}
	s.apiController = v1.New(group, s.analyzer, opts...)

	s.logger.Debug("routes initialized",
		logger.Bool("metrics", s.metrics != nil && s.config.MetricsEnabled),
		logger.Bool("rate_limit", s.config.RateLimit > 0))
}

// MemoryUsage is the memory section of the health response.
type MemoryUsage struct {
	ProcessRSSMB  uint64  `json:"process_rss_mb"`
	SystemUsedPct float64 `json:"system_used_percent"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string       `json:"status"`
	Version       string       `json:"version"`
	Uptime        string       `json:"uptime"`
	UptimeSeconds float64      `json:"uptime_seconds"`
	CacheEntries  int          `json:"cache_entries"`
	Memory        *MemoryUsage `json:"memory,omitempty"`
	Timestamp     string       `json:"timestamp"`
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)

	resp := HealthResponse{
		Status:        "healthy",
		Version:       s.version,
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		Timestamp:     time.Now().Format(time.RFC3339),
	}
	if s.cache != nil {
		resp.CacheEntries = s.cache.Len()
	}
	if usage, err := memoryUsage(); err == nil {
		resp.Memory = usage
	} else {
		s.logger.Debug("memory stats unavailable", logger.Error(err))
	}

	return c.JSON(http.StatusOK, resp)
}

// memoryUsage gathers process and system memory figures via gopsutil.
func memoryUsage() (*MemoryUsage, error) {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get virtual memory stats: %w", err)
	}

	proc, err := process.NewProcess(int32(os.Getpid())) // #nosec G115 -- PIDs fit in int32
	if err != nil {
		return nil, fmt.Errorf("failed to get process instance: %w", err)
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get process memory info: %w", err)
	}

	return &MemoryUsage{
		ProcessRSSMB:  memInfo.RSS / 1024 / 1024,
		SystemUsedPct: vmStat.UsedPercent,
	}, nil
}

// Start binds the listener and serves requests in a background goroutine.
// Use Shutdown() to stop the server.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	s.listener = ln
	s.echo.Listener = ln

	s.wg.Go(func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", logger.Error(err))
		}
	})

	s.logger.Info("HTTP server listening", logger.String("address", ln.Addr().String()))
	return nil
}

// Run starts the server and blocks until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	s.logger.Info("shutdown signal received, initiating graceful shutdown")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.wg.Wait()
	s.logger.Info("server shutdown complete")
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Echo returns the underlying Echo instance.
// This is useful for testing or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
