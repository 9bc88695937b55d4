package server

import (
	"context"
	"net/http"

	"stackmon/internal/errors"
	"stackmon/internal/logger"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error in the HTTPErrorResponse envelope
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var body interface{}

	switch e := err.(type) {
	case *echo.HTTPError:
		code = e.Code
		switch msg := e.Message.(type) {
		case errors.HTTPErrorResponse:
			body = msg
		case string:
			body = errors.HTTPErrorResponse{Error: errors.ErrorInfo{Code: codeForStatus(code), Message: msg}}
		default:
			body = errors.HTTPErrorResponse{Error: errors.ErrorInfo{Code: codeForStatus(code), Message: http.StatusText(code)}}
		}
	default:
		if se, ok := errors.As(err); ok {
			code = se.GetHTTPStatus()
			body = errors.HTTPErrorResponse{
				Error:   errors.ErrorInfo{Code: se.Code, Message: se.Message, Details: se.Details},
				Context: se.Context,
			}
		} else {
			body = errors.HTTPErrorResponse{Error: errors.ErrorInfo{
				Code:    errors.ErrInternal,
				Message: "Internal server error",
				Details: err.Error(),
			}}
		}
	}

	if code >= http.StatusInternalServerError {
		logger.GetLogger(c).WithError(err).Error("Request error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

func codeForStatus(status int) errors.ErrorCode {
	switch status {
	case http.StatusNotFound:
		return errors.ErrNotFound
	case http.StatusBadRequest, http.StatusMethodNotAllowed:
		return errors.ErrInvalidInput
	case http.StatusConflict:
		return errors.ErrOperationRunning
	default:
		return errors.ErrInternal
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		return id
	}
	return ""
}
