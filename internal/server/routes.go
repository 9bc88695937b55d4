package server

import (
	"net/http"
	"slices"
	"time"

	"stackmon/internal/errors"
	"stackmon/internal/types"
	"stackmon/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	s.echo.GET("/health", s.handleLiveness)

	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/health/stream", s.handleHealthStream)
	api.GET("/status", s.handleSystemStatus)
	api.GET("/dependencies", s.handleDependencies)

	services := api.Group("/services")
	services.GET("", s.handleListServices)
	services.GET("/order", s.handleServiceOrder)
	services.POST("/start", s.handleStartAll)
	services.POST("/stop", s.handleStopAll)
	services.GET("/:name", s.handleGetService)
	services.POST("/:name/start", s.handleStartService)
	services.POST("/:name/stop", s.handleStopService)
	services.GET("/:name/logs", s.handleServiceLogs)

	creds := api.Group("/credentials")
	creds.GET("", s.handleListCredentials)
	creds.GET("/:provider", s.handleGetCredential)
	creds.PUT("/:provider", s.handleSetCredential)
	creds.DELETE("/:provider", s.handleRemoveCredential)
}

// resultStatus maps a failed result's code to its HTTP status
func resultStatus(success bool, code errors.ErrorCode) int {
	if success {
		return http.StatusOK
	}
	if code == "" {
		code = errors.ErrInternal
	}
	return errors.New(code, "").GetHTTPStatus()
}

// handleLiveness godoc
// @Summary Liveness
// @Description Reports that the stackmon server itself is up
// @Tags health
// @Produce json
// @Success 200 {object} LivenessResponse
// @Router /health [get]
func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, LivenessResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleHealth godoc
// @Summary Stack health
// @Description Latest health snapshot. Served from cache while fresh unless refresh is set.
// @Tags health
// @Produce json
// @Param refresh query bool false "Force a new sweep"
// @Success 200 {object} types.HealthStatus
// @Failure 500 {object} errors.HTTPErrorResponse
// @Router /api/health [get]
func (s *Server) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		status *types.HealthStatus
		err    error
	)
	if c.QueryParam("refresh") == "true" {
		status, err = s.monitor.CheckSystemHealth(ctx)
	} else {
		status, err = s.monitor.Health(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// handleSystemStatus godoc
// @Summary System status
// @Description Health snapshot plus uptime and monitoring details
// @Tags health
// @Produce json
// @Success 200 {object} types.SystemStatus
// @Failure 500 {object} errors.HTTPErrorResponse
// @Router /api/status [get]
func (s *Server) handleSystemStatus(c echo.Context) error {
	status, err := s.monitor.GetSystemStatus(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// handleDependencies godoc
// @Summary Validate dependencies
// @Description Checks python packages, node modules and API keys
// @Tags dependencies
// @Produce json
// @Success 200 {object} types.ValidationResult
// @Router /api/dependencies [get]
func (s *Server) handleDependencies(c echo.Context) error {
	return c.JSON(http.StatusOK, s.monitor.ValidateDependencies(c.Request().Context()))
}

// handleListServices godoc
// @Summary List services
// @Description Live health of every service in startup order
// @Tags services
// @Produce json
// @Success 200 {object} ServicesResponse
// @Router /api/services [get]
func (s *Server) handleListServices(c echo.Context) error {
	ctx := c.Request().Context()
	order := s.monitor.StartupOrder()

	resp := ServicesResponse{Services: make([]types.ServiceHealth, 0, len(order)), Total: len(order)}
	for _, name := range order {
		h, err := s.monitor.ServiceHealth(ctx, name)
		if err != nil {
			return err
		}
		if h.Status == types.ServiceRunning {
			resp.Running++
		}
		resp.Services = append(resp.Services, h)
	}
	return c.JSON(http.StatusOK, resp)
}

// handleServiceOrder godoc
// @Summary Service order
// @Description Dependency-ordered startup and shutdown sequences
// @Tags services
// @Produce json
// @Success 200 {object} OrderResponse
// @Router /api/services/order [get]
func (s *Server) handleServiceOrder(c echo.Context) error {
	order := s.monitor.StartupOrder()
	shutdown := slices.Clone(order)
	slices.Reverse(shutdown)
	return c.JSON(http.StatusOK, OrderResponse{StartupOrder: order, ShutdownOrder: shutdown})
}

// handleStartAll godoc
// @Summary Start the stack
// @Description Validates dependencies and starts every service in order, rolling back on failure
// @Tags services
// @Produce json
// @Success 200 {object} types.StartupResult
// @Failure 412 {object} types.StartupResult
// @Failure 502 {object} types.StartupResult
// @Failure 504 {object} types.StartupResult
// @Router /api/services/start [post]
func (s *Server) handleStartAll(c echo.Context) error {
	r := s.monitor.StartServices(c.Request().Context())
	return c.JSON(resultStatus(r.Success, r.Code), r)
}

// handleStopAll godoc
// @Summary Stop the stack
// @Description Stops every service in reverse dependency order
// @Tags services
// @Produce json
// @Success 200 {object} types.StopResult
// @Failure 500 {object} types.StopResult
// @Router /api/services/stop [post]
func (s *Server) handleStopAll(c echo.Context) error {
	r := s.monitor.StopAllServices(c.Request().Context())
	return c.JSON(resultStatus(r.Success, r.Code), r)
}

func serviceParam(c echo.Context) (string, error) {
	name := c.Param("name")
	if err := validation.ServiceName(name); err != nil {
		return "", err
	}
	return name, nil
}

// handleGetService godoc
// @Summary Service health
// @Tags services
// @Produce json
// @Param name path string true "Service name"
// @Success 200 {object} types.ServiceHealth
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /api/services/{name} [get]
func (s *Server) handleGetService(c echo.Context) error {
	name, err := serviceParam(c)
	if err != nil {
		return err
	}
	h, err := s.monitor.ServiceHealth(c.Request().Context(), name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h)
}

// handleStartService godoc
// @Summary Start a service
// @Tags services
// @Produce json
// @Param name path string true "Service name"
// @Success 200 {object} types.StartupResult
// @Failure 404 {object} types.StartupResult
// @Router /api/services/{name}/start [post]
func (s *Server) handleStartService(c echo.Context) error {
	name, err := serviceParam(c)
	if err != nil {
		return err
	}
	r := s.monitor.StartService(c.Request().Context(), name)
	return c.JSON(resultStatus(r.Success, r.Code), r)
}

// handleStopService godoc
// @Summary Stop a service
// @Tags services
// @Produce json
// @Param name path string true "Service name"
// @Success 200 {object} types.StopResult
// @Failure 404 {object} types.StopResult
// @Router /api/services/{name}/stop [post]
func (s *Server) handleStopService(c echo.Context) error {
	name, err := serviceParam(c)
	if err != nil {
		return err
	}
	r := s.monitor.StopService(c.Request().Context(), name)
	return c.JSON(resultStatus(r.Success, r.Code), r)
}
