package server

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"stackmon/internal/errors"
	"stackmon/internal/service"

	"github.com/labstack/echo/v4"
)

const defaultLogLines = 50

// handleServiceLogs godoc
// @Summary Service logs
// @Description Tail of the output captured from a managed service
// @Tags services
// @Produce json
// @Param name path string true "Service name"
// @Param lines query int false "Number of lines to retrieve" default(50)
// @Success 200 {object} LogsResponse
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /api/services/{name}/logs [get]
func (s *Server) handleServiceLogs(c echo.Context) error {
	name, err := serviceParam(c)
	if err != nil {
		return err
	}
	if !slices.Contains(s.monitor.StartupOrder(), name) {
		return errors.UnknownService(name)
	}

	lines := defaultLogLines
	if raw := c.QueryParam("lines"); raw != "" {
		n, parseErr := strconv.Atoi(raw)
		if parseErr != nil || n <= 0 {
			return errors.ValidationFailed("lines", "must be a positive integer")
		}
		lines = n
	}

	logLines, err := service.TailLog(s.config.LogDir, name, lines)
	if err != nil {
		return err
	}
	if len(logLines) == 0 {
		logLines = []string{"No logs available for this service"}
	}

	return c.JSON(http.StatusOK, LogsResponse{
		Service:   name,
		Logs:      logLines,
		Lines:     len(logLines),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
