package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCodeThroughWrapping(t *testing.T) {
	base := ReadinessTimeout("backend", 45*time.Second)
	wrapped := fmt.Errorf("starting stack: %w", base)

	assert.Equal(t, ErrReadinessTimeout, GetCode(wrapped))
	assert.True(t, HasCode(wrapped, ErrReadinessTimeout))
	assert.False(t, HasCode(nil, ErrReadinessTimeout))
	assert.Equal(t, ErrorCode(""), GetCode(stderrors.New("plain")))
}

func TestErrorString(t *testing.T) {
	err := SpawnFailure("frontend", stderrors.New("exec: \"npm\": not found"))
	assert.Contains(t, err.Error(), "[SPAWN_FAILURE]")
	assert.Contains(t, err.Error(), "Service: frontend")
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, "frontend", err.Context["service"])
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *StackmonError
		want int
	}{
		{UnknownService("x"), http.StatusNotFound},
		{DependencyMissing("numpy"), http.StatusPreconditionFailed},
		{OperationInProgress("startup"), http.StatusConflict},
		{ConfigInvalid("bad"), http.StatusBadRequest},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.GetHTTPStatus())
		})
	}
}

func TestToHTTPError(t *testing.T) {
	he, ok := ToHTTPError(UnknownService("ghost")).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
	body, ok := he.Message.(HTTPErrorResponse)
	require.True(t, ok)
	assert.Equal(t, ErrUnknownService, body.Error.Code)

	he, ok = ToHTTPError(stderrors.New("boom")).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
}
