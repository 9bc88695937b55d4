package validation

import (
	"testing"

	"stackmon/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "backend", false},
		{"with dash", "api-gateway", false},
		{"with underscore", "worker_1", false},
		{"empty", "", true},
		{"upper case", "Backend", true},
		{"leading dash", "-api", true},
		{"space", "my service", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ServiceName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrValidationFailed))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPortNumber(t *testing.T) {
	assert.NoError(t, PortNumber(1))
	assert.NoError(t, PortNumber(65535))

	err := PortNumber(0)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidPort))
	assert.Error(t, PortNumber(70000))
}

func TestProcessCommand(t *testing.T) {
	assert.NoError(t, ProcessCommand("npm run dev"))
	assert.Error(t, ProcessCommand("   "))
	assert.Error(t, ProcessCommand("sudo uvicorn main:app"))
}

func TestPath(t *testing.T) {
	cleaned, err := Path("./backend/")
	require.NoError(t, err)
	assert.Equal(t, "backend", cleaned)

	_, err = Path("../outside")
	assert.Error(t, err)
	_, err = Path("")
	assert.Error(t, err)
}

func TestHealthPathAndProvider(t *testing.T) {
	assert.NoError(t, HealthPath("/health"))
	assert.Error(t, HealthPath("health"))

	assert.NoError(t, Provider("openai"))
	assert.Error(t, Provider("Open AI"))
	assert.NoError(t, EnvironmentKey("PORT"))
	assert.Error(t, EnvironmentKey("1PORT"))
}
