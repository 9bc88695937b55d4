package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"stackmon/internal/credentials"
	"stackmon/internal/types"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHealth(w io.Writer, h *types.HealthStatus) {
	fmt.Fprintf(w, "Overall: %s (checked %s)\n\n", h.Overall, h.Timestamp.Format(time.RFC3339))

	names := make([]string, 0, len(h.Services))
	for name := range h.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tPORT\tPID\tRESPONSE\tUPTIME\tERROR")
	for _, name := range names {
		printServiceRow(tw, h.Services[name])
	}
	tw.Flush()

	if len(h.Issues) == 0 {
		return
	}
	fmt.Fprintln(w, "\nIssues:")
	for _, issue := range h.Issues {
		fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Severity, issue.Component, issue.Message)
		if issue.Remediation != "" {
			fmt.Fprintf(w, "      fix: %s\n", issue.Remediation)
		}
	}
}

func printServiceRow(w io.Writer, s types.ServiceHealth) {
	pid := "-"
	if s.PID != nil {
		pid = strconv.Itoa(*s.PID)
	}
	uptime := "-"
	if s.UptimeSeconds != nil {
		uptime = (time.Duration(*s.UptimeSeconds) * time.Second).String()
	}
	response := "-"
	if s.ResponseTimeMS > 0 {
		response = fmt.Sprintf("%.1fms", s.ResponseTimeMS)
	}
	errMsg := s.Error
	if errMsg == "" {
		errMsg = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", s.Name, s.Status, s.Port, pid, response, uptime, errMsg)
}

func printStartup(w io.Writer, r types.StartupResult) {
	fmt.Fprintln(w, r.Message)
	if len(r.StartedServices) > 0 {
		fmt.Fprintf(w, "  started: %s\n", strings.Join(r.StartedServices, ", "))
	}
	if len(r.FailedServices) > 0 {
		fmt.Fprintf(w, "  failed:  %s\n", strings.Join(r.FailedServices, ", "))
	}
}

func printStop(w io.Writer, r types.StopResult) {
	fmt.Fprintln(w, r.Message)
	if len(r.StoppedServices) > 0 {
		fmt.Fprintf(w, "  stopped: %s\n", strings.Join(r.StoppedServices, ", "))
	}
	if len(r.FailedServices) > 0 {
		fmt.Fprintf(w, "  failed:  %s\n", strings.Join(r.FailedServices, ", "))
	}
}

func printValidation(w io.Writer, r types.ValidationResult) {
	fmt.Fprintln(w, r.Message)
	d := r.Dependencies
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tOK\tMISSING")
	fmt.Fprintf(tw, "python\t%t\t%s\n", d.PythonDeps, joinOrDash(d.MissingPython))
	fmt.Fprintf(tw, "node\t%t\t%s\n", d.NodeDeps, joinOrDash(d.MissingNode))
	fmt.Fprintf(tw, "api keys\t%t\t%s\n", d.APIKeys, joinOrDash(d.MissingAPIKeys))
	tw.Flush()
	for _, c := range r.InstallCommands {
		fmt.Fprintf(w, "  $ %s\n", c)
	}
}

func printCredentials(w io.Writer, keys []*credentials.KeyInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tCONFIGURED\tVALID\tSOURCE\tKEY\tENV VAR")
	for _, k := range keys {
		source := string(k.Source)
		if source == "" {
			source = "-"
		}
		masked := k.MaskedKey
		if masked == "" {
			masked = "-"
		}
		fmt.Fprintf(tw, "%s\t%t\t%t\t%s\t%s\t%s\n", k.Provider, k.Configured, k.IsValid, source, masked, credentials.EnvVar(k.Provider))
	}
	tw.Flush()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
