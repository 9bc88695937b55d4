package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"stackmon/internal/credentials"
	"stackmon/internal/server"
	"stackmon/internal/types"

	"github.com/gorilla/websocket"
)

// Liveness reports whether the server answers
func (c *Client) Liveness(ctx context.Context) (*server.LivenessResponse, error) {
	var out server.LivenessResponse
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the server's snapshot; refresh forces a new sweep
func (c *Client) Health(ctx context.Context, refresh bool) (*types.HealthStatus, error) {
	path := "/api/health"
	if refresh {
		path += "?refresh=true"
	}
	var out types.HealthStatus
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the system status
func (c *Client) Status(ctx context.Context) (*types.SystemStatus, error) {
	var out types.SystemStatus
	if err := c.getJSON(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Services returns the live health of every service
func (c *Client) Services(ctx context.Context) (*server.ServicesResponse, error) {
	var out server.ServicesResponse
	if err := c.getJSON(ctx, "/api/services", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Order returns the startup and shutdown order
func (c *Client) Order(ctx context.Context) (*server.OrderResponse, error) {
	var out server.OrderResponse
	if err := c.getJSON(ctx, "/api/services/order", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dependencies runs the prerequisite validation on the server
func (c *Client) Dependencies(ctx context.Context) (*types.ValidationResult, error) {
	var out types.ValidationResult
	if err := c.getJSON(ctx, "/api/dependencies", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartServices starts the whole stack
func (c *Client) StartServices(ctx context.Context) (types.StartupResult, error) {
	var out types.StartupResult
	err := c.callResult(ctx, http.MethodPost, "/api/services/start", &out)
	return out, err
}

// StopAllServices stops the whole stack
func (c *Client) StopAllServices(ctx context.Context) (types.StopResult, error) {
	var out types.StopResult
	err := c.callResult(ctx, http.MethodPost, "/api/services/stop", &out)
	return out, err
}

// StartService starts one service
func (c *Client) StartService(ctx context.Context, name string) (types.StartupResult, error) {
	var out types.StartupResult
	err := c.callResult(ctx, http.MethodPost, fmt.Sprintf("/api/services/%s/start", url.PathEscape(name)), &out)
	return out, err
}

// StopService stops one service
func (c *Client) StopService(ctx context.Context, name string) (types.StopResult, error) {
	var out types.StopResult
	err := c.callResult(ctx, http.MethodPost, fmt.Sprintf("/api/services/%s/stop", url.PathEscape(name)), &out)
	return out, err
}

// Logs returns the last lines of a service's output
func (c *Client) Logs(ctx context.Context, name string, lines int) (*server.LogsResponse, error) {
	var out server.LogsResponse
	path := fmt.Sprintf("/api/services/%s/logs?lines=%d", url.PathEscape(name), lines)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Credentials lists every provider key
func (c *Client) Credentials(ctx context.Context) ([]*credentials.KeyInfo, error) {
	var out server.CredentialsResponse
	if err := c.getJSON(ctx, "/api/credentials", &out); err != nil {
		return nil, err
	}
	return out.Credentials, nil
}

// SetCredential stores a provider key
func (c *Client) SetCredential(ctx context.Context, provider, key string) (*credentials.KeyInfo, error) {
	var out credentials.KeyInfo
	path := "/api/credentials/" + url.PathEscape(provider)
	if err := c.call(ctx, http.MethodPut, path, server.SetCredentialRequest{APIKey: key}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveCredential deletes a stored provider key
func (c *Client) RemoveCredential(ctx context.Context, provider string) error {
	return c.call(ctx, http.MethodDelete, "/api/credentials/"+url.PathEscape(provider), nil, nil)
}

// WatchHealth streams snapshots to fn until ctx ends or the server closes the stream
func (c *Client) WatchHealth(ctx context.Context, fn func(*types.HealthStatus)) error {
	conn, err := c.WebSocketConnect(ctx, "/api/health/stream")
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var msg server.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("health stream: %w", err)
		}
		if msg.Type == "error" {
			return fmt.Errorf("health stream: %s", msg.Error)
		}
		if msg.Health != nil {
			fn(msg.Health)
		}
	}
}
