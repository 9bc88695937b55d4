package health

import (
	"fmt"
	"sort"
	"strings"

	"stackmon/internal/dependency"
	"stackmon/internal/types"
)

// DeriveIssues turns one sweep's observations into actionable issues.
// Services are visited in name order so issue lists are stable.
func DeriveIssues(services map[string]types.ServiceHealth, deps types.DependencyStatus) []types.Issue {
	issues := []types.Issue{}

	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		svc := services[name]
		component := "service." + name
		switch svc.Status {
		case types.ServiceError:
			msg := fmt.Sprintf("Service %s is in error state", name)
			if svc.Error != "" {
				msg += ": " + svc.Error
			}
			issues = append(issues, types.NewIssue(types.SeverityCritical, component, msg,
				fmt.Sprintf("Check service logs and restart %s", name)))
		case types.ServiceStopped:
			issues = append(issues, types.NewIssue(types.SeverityWarning, component,
				fmt.Sprintf("Service %s is not running", name),
				fmt.Sprintf("Start %s service", name)))
		case types.ServiceStarting, types.ServiceRunning, types.ServiceStopping:
		}
	}

	if len(deps.MissingPython) > 0 {
		issues = append(issues, types.NewIssue(types.SeverityCritical, "dependencies.python",
			"Missing Python dependencies: "+strings.Join(deps.MissingPython, ", "),
			"Run: "+dependency.PipInstallCommand))
	}
	if len(deps.MissingNode) > 0 {
		issues = append(issues, types.NewIssue(types.SeverityCritical, "dependencies.node",
			"Missing Node.js dependencies: "+strings.Join(deps.MissingNode, ", "),
			"Run: "+dependency.NpmInstallCommand))
	}
	if !deps.APIKeys {
		issues = append(issues, types.NewIssue(types.SeverityWarning, "configuration.api_keys",
			dependency.NoValidAPIKeys,
			"Configure an API key for one of: "+strings.Join(deps.MissingAPIKeys, ", ")))
	}
	return issues
}

// OverallStatus applies the verdict precedence: a critical issue or nothing
// running is unhealthy, partial availability or a warning is degraded.
func OverallStatus(services map[string]types.ServiceHealth, issues []types.Issue) types.OverallStatus {
	warning := false
	for _, issue := range issues {
		switch issue.Severity {
		case types.SeverityCritical:
			return types.Unhealthy
		case types.SeverityWarning:
			warning = true
		case types.SeverityInfo:
		}
	}

	running := 0
	for _, svc := range services {
		if svc.Status == types.ServiceRunning {
			running++
		}
	}
	switch {
	case running == 0:
		return types.Unhealthy
	case running < len(services):
		return types.Degraded
	case warning:
		return types.Degraded
	default:
		return types.Healthy
	}
}
