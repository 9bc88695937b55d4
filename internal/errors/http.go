package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Error   ErrorInfo              `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ToHTTPError converts a coded error to an Echo HTTP error
func ToHTTPError(err error) error {
	if ve, ok := As(err); ok {
		return echo.NewHTTPError(ve.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    ve.Code,
				Message: ve.Message,
				Details: ve.Details,
			},
			Context: ve.Context,
		})
	}

	// For non-StackmonError, create a generic internal error
	return echo.NewHTTPError(http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	})
}

// HandleError is a helper function for consistent error handling in HTTP handlers
func HandleError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	return ToHTTPError(err)
}

// BadRequest creates a 400 Bad Request error
func BadRequest(message, details string) error {
	return echo.NewHTTPError(http.StatusBadRequest, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInvalidInput,
			Message: message,
			Details: details,
		},
	})
}

// NotFound creates a 404 Not Found error
func NotFound(resource, id string) error {
	return echo.NewHTTPError(http.StatusNotFound, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrNotFound,
			Message: "Resource not found",
			Details: resource + " with ID '" + id + "' not found",
		},
	})
}

// Conflict creates a 409 Conflict error
func Conflict(message, details string) error {
	return echo.NewHTTPError(http.StatusConflict, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrOperationRunning,
			Message: message,
			Details: details,
		},
	})
}

// InternalServerError creates a 500 Internal Server Error
func InternalServerError(details string) error {
	return echo.NewHTTPError(http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: details,
		},
	})
}
