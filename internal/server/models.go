package server

import (
	"stackmon/internal/credentials"
	"stackmon/internal/types"
)

// LivenessResponse is returned by /health
type LivenessResponse struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version" example:"1.0.0"`
	Uptime  string `json:"uptime" example:"2h30m15s"`
}

// ServicesResponse lists the health of every service in startup order
type ServicesResponse struct {
	Services []types.ServiceHealth `json:"services"`
	Running  int                   `json:"running" example:"2"`
	Total    int                   `json:"total" example:"2"`
}

// OrderResponse holds the dependency order of the services
type OrderResponse struct {
	StartupOrder  []string `json:"startup_order"`
	ShutdownOrder []string `json:"shutdown_order"`
}

// CredentialsResponse lists every provider key
type CredentialsResponse struct {
	Credentials []*credentials.KeyInfo `json:"credentials"`
	Configured  int                    `json:"configured" example:"1"`
}

// SetCredentialRequest stores a provider key
type SetCredentialRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// LogsResponse holds the tail of a service output file
type LogsResponse struct {
	Service   string   `json:"service" example:"backend"`
	Logs      []string `json:"logs"`
	Lines     int      `json:"lines" example:"50"`
	Timestamp string   `json:"timestamp"`
}

// StreamMessage is one frame of the health stream
type StreamMessage struct {
	Type   string              `json:"type"` // "snapshot" or "error"
	Health *types.HealthStatus `json:"health,omitempty"`
	Error  string              `json:"error,omitempty"`
}
