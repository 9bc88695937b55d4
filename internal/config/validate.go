package config

import (
	"fmt"
	"strings"

	"stackmon/internal/errors"
	"stackmon/internal/validation"
)

// Validate checks the configuration for mistakes that would break startup
func (c *Config) Validate() error {
	var problems []string
	seen := make(map[string]bool, len(c.Services))

	for _, svc := range c.Services {
		if err := validation.ServiceName(svc.Name); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		if seen[svc.Name] {
			problems = append(problems, fmt.Sprintf("duplicate service %q", svc.Name))
		}
		seen[svc.Name] = true

		if svc.ProbeKind() != ProbeAlways {
			if err := validation.PortNumber(svc.Port); err != nil {
				problems = append(problems, fmt.Sprintf("service %s: %v", svc.Name, err))
			}
			if err := validation.ProcessCommand(svc.Command); err != nil {
				problems = append(problems, fmt.Sprintf("service %s: %v", svc.Name, err))
			}
		}
		if err := validation.HealthPath(svc.HealthPath); err != nil {
			problems = append(problems, fmt.Sprintf("service %s: %v", svc.Name, err))
		}
		switch svc.ProbeKind() {
		case ProbeStrict, ProbeLenient, ProbeAlways:
		default:
			problems = append(problems, fmt.Sprintf("service %s: unknown probe %q", svc.Name, svc.Probe))
		}
		for key := range svc.Env {
			if err := validation.EnvironmentKey(key); err != nil {
				problems = append(problems, fmt.Sprintf("service %s: %v", svc.Name, err))
			}
		}
	}

	for _, svc := range c.Services {
		for _, dep := range svc.DependsOn {
			if !seen[dep] {
				problems = append(problems, fmt.Sprintf("service %s depends on unknown service %q", svc.Name, dep))
			}
		}
	}

	switch c.Startup.RetryPolicy {
	case RetryConstant, RetryExponential:
	default:
		problems = append(problems, fmt.Sprintf("unknown retry policy %q", c.Startup.RetryPolicy))
	}
	if c.Startup.MaxRetries < 1 {
		problems = append(problems, "startup.max_retries must be at least 1")
	}
	if err := validation.PortNumber(c.Server.Port); err != nil {
		problems = append(problems, fmt.Sprintf("server: %v", err))
	}
	for _, p := range c.Dependencies.CredentialProviders {
		if err := validation.Provider(p); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.ConfigInvalid(strings.Join(problems, "; "))
	}
	return nil
}
