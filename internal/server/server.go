// Package server exposes the monitor and the credential store over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stackmon/internal/constants"
	"stackmon/internal/credentials"
	"stackmon/internal/logger"
	"stackmon/internal/types"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Version is reported by the liveness endpoint
const Version = "1.0.0"

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	AllowOrigins []string
	AllowHeaders []string

	// LogDir holds the service output files served by the logs endpoint
	LogDir string
}

// DefaultConfig returns the default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "127.0.0.1",
		Port:            constants.DefaultServerPort,
		ReadTimeout:     constants.DefaultServerReadTimeout,
		WriteTimeout:    constants.DefaultServerWriteTimeout,
		ShutdownTimeout: constants.DefaultServerShutdownTimeout,
		AllowOrigins:    []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowHeaders:    []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}
}

// Monitor is the health.Monitor surface served over HTTP
type Monitor interface {
	Health(ctx context.Context) (*types.HealthStatus, error)
	CheckSystemHealth(ctx context.Context) (*types.HealthStatus, error)
	GetSystemStatus(ctx context.Context) (*types.SystemStatus, error)
	ValidateDependencies(ctx context.Context) types.ValidationResult
	StartupOrder() []string
	StartServices(ctx context.Context) types.StartupResult
	StopAllServices(ctx context.Context) types.StopResult
	StartService(ctx context.Context, name string) types.StartupResult
	StopService(ctx context.Context, name string) types.StopResult
	ServiceHealth(ctx context.Context, name string) (types.ServiceHealth, error)
	Subscribe() (<-chan *types.HealthStatus, func())
}

// Credentials is the credentials.Store surface served over HTTP
type Credentials interface {
	List(ctx context.Context) ([]*credentials.KeyInfo, error)
	Info(ctx context.Context, provider string) (*credentials.KeyInfo, error)
	Set(ctx context.Context, provider, key string) (*credentials.KeyInfo, error)
	Remove(ctx context.Context, provider string) error
}

// Server represents the main HTTP server
type Server struct {
	config    *Config
	echo      *echo.Echo
	monitor   Monitor
	creds     Credentials
	gatherer  prometheus.Gatherer
	startTime time.Time
}

// New creates a server. gatherer backs /metrics; nil uses the default registry.
func New(cfg *Config, monitor Monitor, creds Credentials, gatherer prometheus.Gatherer) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	s := &Server{
		config:    cfg,
		echo:      e,
		monitor:   monitor,
		creds:     creds,
		gatherer:  gatherer,
		startTime: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Echo returns the Echo instance
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	logger.WithField("addr", addr).Info("Starting server")

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(logger.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowOrigins,
		AllowHeaders: s.config.AllowHeaders,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
}
