package service

import (
	"context"
	"net/http"

	"stackmon/internal/config"
	"stackmon/internal/logger"
)

// ReadinessProbe decides whether a service answering on its port is ready
type ReadinessProbe interface {
	Ready(ctx context.Context, url string) bool
}

// strategies maps a probe kind to its constructor
var strategies = map[string]func(client *http.Client) ReadinessProbe{
	config.ProbeStrict:  func(c *http.Client) ReadinessProbe { return StrictProbe{Client: c} },
	config.ProbeLenient: func(c *http.Client) ReadinessProbe { return LenientProbe{Client: c} },
	config.ProbeAlways:  func(*http.Client) ReadinessProbe { return AlwaysReady{} },
}

// ProbeFor returns the readiness probe for kind, defaulting to lenient
func ProbeFor(kind string, client *http.Client) ReadinessProbe {
	if client == nil {
		client = http.DefaultClient
	}
	if build, ok := strategies[kind]; ok {
		return build(client)
	}
	return LenientProbe{Client: client}
}

// StrictProbe requires 200 OK. When the request itself fails it defers to LenientProbe.
type StrictProbe struct {
	Client *http.Client
}

func (p StrictProbe) Ready(ctx context.Context, url string) bool {
	status, err := get(ctx, p.Client, url)
	if err != nil {
		logger.WithError(err).WithField("url", url).Debug("Strict health probe failed, retrying leniently")
		return LenientProbe(p).Ready(ctx, url)
	}
	return status == http.StatusOK
}

// LenientProbe accepts any response that is not a server error
type LenientProbe struct {
	Client *http.Client
}

func (p LenientProbe) Ready(ctx context.Context, url string) bool {
	status, err := get(ctx, p.Client, url)
	if err != nil {
		logger.WithError(err).WithField("url", url).Debug("Health probe failed")
		return false
	}
	return status < http.StatusInternalServerError
}

// AlwaysReady marks a service whose process is not managed here, such as a
// database run by the platform. It is reported as running unconditionally.
type AlwaysReady struct{}

func (AlwaysReady) Ready(context.Context, string) bool {
	return true
}

func get(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
