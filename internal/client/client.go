// Package client talks to a running stackmon server over HTTP and WebSocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stackmon/internal/constants"
	"stackmon/internal/errors"

	"github.com/gorilla/websocket"
)

// Client represents the HTTP/WebSocket client for a stackmon server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client instance
func New(serverURL string) (*Client, error) {
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return nil, errors.ValidationFailed("server", fmt.Sprintf("invalid server URL %q", serverURL))
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{
			// startups wait on readiness, which can take minutes
			Timeout: 0,
		},
	}, nil
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNetworkConnection, "request to stackmon server failed", err)
	}
	return resp, nil
}

// getJSON decodes a 200 response into out
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

// call performs a request and decodes a 2xx body into out, or returns the server's error
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrAPICall, "failed to decode response", err)
	}
	return nil
}

// callResult decodes the body whatever the status; result endpoints report failure in the body
func (c *Client) callResult(ctx context.Context, method, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrAPICall, "failed to read response", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.WrapWithDetails(errors.ErrAPICall, "unexpected response", resp.Status, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorMessageLength))

	var envelope errors.HTTPErrorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Code != "" {
		se := errors.NewWithDetails(envelope.Error.Code, envelope.Error.Message, envelope.Error.Details)
		se.HTTPStatus = resp.StatusCode
		return se
	}

	se := errors.NewWithDetails(errors.ErrAPICall, fmt.Sprintf("server returned %s", resp.Status), strings.TrimSpace(string(data)))
	se.HTTPStatus = resp.StatusCode
	return se
}

// WebSocketConnect establishes a WebSocket connection to path
func (c *Client) WebSocketConnect(ctx context.Context, path string) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	wsScheme := "ws"
	if u.Scheme == "https" {
		wsScheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://%s%s", wsScheme, u.Host, path)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNetworkConnection, "WebSocket connection failed", err)
	}
	return conn, nil
}
