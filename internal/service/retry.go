package service

import (
	"github.com/cenkalti/backoff/v5"

	"stackmon/internal/config"
)

// RetryPolicy builds a fresh backoff for one start sequence
type RetryPolicy func() backoff.BackOff

// NewRetryPolicy returns the policy described by cfg: a fixed delay, or an
// exponential delay starting at RetryDelay and capped at MaxRetryDelay.
func NewRetryPolicy(cfg config.StartupConfig) RetryPolicy {
	switch cfg.RetryPolicy {
	case config.RetryExponential:
		return func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = cfg.RetryDelay.Duration
			b.MaxInterval = cfg.MaxRetryDelay.Duration
			b.Multiplier = 2
			b.RandomizationFactor = 0
			b.Reset()
			return b
		}
	default:
		return func() backoff.BackOff {
			return backoff.NewConstantBackOff(cfg.RetryDelay.Duration)
		}
	}
}
