// Package dependency checks the prerequisites a stack needs before it can start:
// python packages, the node toolchain, and at least one usable API key.
package dependency

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"stackmon/internal/config"
	"stackmon/internal/logger"
	"stackmon/internal/types"

	"golang.org/x/sync/errgroup"
)

// Install commands suggested for missing packages
const (
	PipInstallCommand = "pip install -r requirements.txt"
	NpmInstallCommand = "npm install"
)

// NoValidAPIKeys is the message used when none of the credential providers has a usable key
const NoValidAPIKeys = "No valid API keys found. Please configure at least one API key"

// CredentialChecker answers whether a provider has a usable key
type CredentialChecker interface {
	IsValid(ctx context.Context, provider string) (bool, error)
}

// Validator runs the prerequisite checks
type Validator struct {
	cfg         config.DependenciesConfig
	runner      CommandRunner
	credentials CredentialChecker
}

// NewValidator creates a validator. A nil runner uses ExecRunner.
func NewValidator(cfg config.DependenciesConfig, runner CommandRunner, credentials CredentialChecker) *Validator {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Validator{cfg: cfg, runner: runner, credentials: credentials}
}

// ValidateAll runs the python, node and credential checks concurrently and merges them
func (v *Validator) ValidateAll(ctx context.Context) types.ValidationResult {
	var (
		python, node []string
		pythonOK     bool
		nodeOK       bool
		keys         []string
		keysOK       bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pythonOK, python = v.CheckPython(gctx)
		return nil
	})
	g.Go(func() error {
		nodeOK, node = v.CheckNode(gctx)
		return nil
	})
	g.Go(func() error {
		keysOK, keys = v.CheckCredentials(gctx)
		return nil
	})
	_ = g.Wait()

	status := types.DependencyStatus{
		PythonDeps:     pythonOK,
		NodeDeps:       nodeOK,
		APIKeys:        keysOK,
		MissingPython:  nonNil(python),
		MissingNode:    nonNil(node),
		MissingAPIKeys: nonNil(keys),
	}
	return Summarize(status)
}

// Summarize builds the validation result of status
func Summarize(status types.DependencyStatus) types.ValidationResult {
	commands := []string{}
	if len(status.MissingPython) > 0 {
		commands = append(commands, PipInstallCommand)
	}
	if len(status.MissingNode) > 0 {
		commands = append(commands, NpmInstallCommand)
	}

	result := types.ValidationResult{
		Success:         status.Satisfied(),
		Dependencies:    status,
		InstallCommands: commands,
	}
	if result.Success {
		result.Message = "All dependencies validated successfully"
		return result
	}

	var missing []string
	missing = append(missing, status.MissingPython...)
	missing = append(missing, status.MissingNode...)
	if !status.APIKeys {
		missing = append(missing, NoValidAPIKeys)
	}
	result.Message = "Missing dependencies: " + strings.Join(missing, ", ")
	return result
}

// CheckPython compares the backend requirements with the installed packages
func (v *Validator) CheckPython(ctx context.Context) (bool, []string) {
	log := logger.WithField("check", "python")

	path := v.cfg.RequirementsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.cfg.BackendDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, []string{"requirements.txt not found"}
		}
		log.WithError(err).Warn("Failed to open requirements")
		return false, []string{fmt.Sprintf("Error checking dependencies: %v", err)}
	}
	defer f.Close()

	required, err := ParseRequirements(f)
	if err != nil {
		return false, []string{fmt.Sprintf("Error checking dependencies: %v", err)}
	}

	out, err := v.runner.Output(ctx, v.cfg.BackendDir, v.cfg.PipCommand, "list", "--format=json")
	if err != nil {
		log.WithError(err).Warn("pip list failed")
		return false, []string{"Failed to get installed packages"}
	}

	var pkgs []struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(out, &pkgs); err != nil {
		log.WithError(err).Warn("Unreadable pip list output")
		return false, []string{"Failed to get installed packages"}
	}

	installed := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		installed[NormalizeName(p.Name)] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := installed[NormalizeName(name)]; !ok {
			missing = append(missing, name)
		}
	}
	log.WithField("missing", len(missing)).Debug("Python dependencies checked")
	return len(missing) == 0, missing
}

// CheckNode verifies the frontend toolchain and its installed modules
func (v *Validator) CheckNode(ctx context.Context) (bool, []string) {
	log := logger.WithField("check", "node")

	if _, err := os.Stat(filepath.Join(v.cfg.FrontendDir, "package.json")); err != nil {
		return false, []string{"package.json not found"}
	}
	if _, err := os.Stat(filepath.Join(v.cfg.FrontendDir, "node_modules")); err != nil {
		return false, []string{"node_modules not found - run npm install"}
	}
	if _, err := v.runner.Output(ctx, v.cfg.FrontendDir, v.cfg.NpmCommand, "--version"); err != nil {
		log.WithError(err).Warn("npm not callable")
		return false, []string{"npm not available"}
	}

	// npm list exits non-zero whenever something is missing, so the JSON is read regardless
	out, runErr := v.runner.Output(ctx, v.cfg.FrontendDir, v.cfg.NpmCommand, "list", "--depth=0", "--json")
	var tree struct {
		Dependencies map[string]struct {
			Missing bool `json:"missing"`
		} `json:"dependencies"`
	}
	if err := json.Unmarshal(out, &tree); err != nil {
		log.WithError(runErr).Warn("npm list failed")
		return false, []string{"Failed to check npm dependencies"}
	}

	var missing []string
	for name, dep := range tree.Dependencies {
		if dep.Missing {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	return len(missing) == 0, missing
}

// CheckCredentials requires at least one configured provider to have a valid key.
// Every provider is reported missing only when none of them is usable.
func (v *Validator) CheckCredentials(ctx context.Context) (bool, []string) {
	for _, provider := range v.cfg.CredentialProviders {
		if v.credentials == nil {
			break
		}
		ok, err := v.credentials.IsValid(ctx, provider)
		if err != nil {
			logger.WithError(err).WithField("provider", provider).Warn("Credential check failed")
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, slices.Clone(v.cfg.CredentialProviders)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
