// Package config loads the stackmon configuration: the managed service
// table plus the settings of the startup sequencer, the monitor, the
// dependency validator and the API server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stackmon/internal/constants"
	"stackmon/internal/errors"
	"stackmon/internal/logger"
	"stackmon/internal/xdg"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config file names searched for, in order
var configFileNames = []string{"stackmon.toml", "stackmon.yaml", "stackmon.yml"}

// Retry policies for service start attempts
const (
	RetryConstant    = "constant"
	RetryExponential = "exponential"
)

// Config is the full stackmon configuration
type Config struct {
	Services     []ServiceConfig    `toml:"services" yaml:"services"`
	Startup      StartupConfig      `toml:"startup" yaml:"startup"`
	Monitor      MonitorConfig      `toml:"monitor" yaml:"monitor"`
	Dependencies DependenciesConfig `toml:"dependencies" yaml:"dependencies"`
	Server       ServerConfig       `toml:"server" yaml:"server"`
	Database     DatabaseConfig     `toml:"database" yaml:"database"`
}

// StartupConfig controls start attempts of each service
type StartupConfig struct {
	MaxRetries    int      `toml:"max_retries" yaml:"max_retries"`
	RetryPolicy   string   `toml:"retry_policy" yaml:"retry_policy"`
	RetryDelay    Duration `toml:"retry_delay" yaml:"retry_delay"`
	MaxRetryDelay Duration `toml:"max_retry_delay" yaml:"max_retry_delay"`
}

// MonitorConfig controls the background monitoring loop
type MonitorConfig struct {
	Interval  Duration `toml:"interval" yaml:"interval"`
	Staleness Duration `toml:"staleness" yaml:"staleness"`
	AutoStart bool     `toml:"auto_start" yaml:"auto_start"`
}

// DependenciesConfig tells the validator where the prerequisites live
type DependenciesConfig struct {
	BackendDir          string   `toml:"backend_dir" yaml:"backend_dir"`
	FrontendDir         string   `toml:"frontend_dir" yaml:"frontend_dir"`
	RequirementsFile    string   `toml:"requirements_file" yaml:"requirements_file"`
	PipCommand          string   `toml:"pip_command" yaml:"pip_command"`
	NpmCommand          string   `toml:"npm_command" yaml:"npm_command"`
	CredentialProviders []string `toml:"credential_providers" yaml:"credential_providers"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`
}

// DatabaseConfig locates the credential database
type DatabaseConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Services: DefaultServices(),
		Startup: StartupConfig{
			MaxRetries:    constants.DefaultMaxRetries,
			RetryPolicy:   RetryConstant,
			RetryDelay:    D(constants.DefaultRetryDelay),
			MaxRetryDelay: D(constants.DefaultMaxRetryDelay),
		},
		Monitor: MonitorConfig{
			Interval:  D(constants.DefaultMonitorInterval),
			Staleness: D(constants.DefaultSnapshotStaleness),
		},
		Dependencies: DependenciesConfig{
			BackendDir:          "backend",
			FrontendDir:         "frontend",
			RequirementsFile:    "requirements.txt",
			PipCommand:          "pip",
			NpmCommand:          "npm",
			CredentialProviders: []string{"openai", "mistral", "gemini", "anthropic"},
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: constants.DefaultServerPort,
		},
	}
}

// Graph builds the dependency graph of the configured services
func (c *Config) Graph() *Graph {
	return NewGraph(c.Services)
}

// applyDefaults fills zero values from Default
func (c *Config) applyDefaults() {
	def := Default()

	if c.Services == nil {
		c.Services = def.Services
	}
	for i := range c.Services {
		svc := &c.Services[i]
		if svc.HealthPath == "" {
			svc.HealthPath = "/"
		}
		if svc.StartupTimeout.Duration == 0 {
			svc.StartupTimeout = D(constants.DefaultStartupTimeout)
		}
		if svc.HealthTimeout.Duration == 0 {
			svc.HealthTimeout = D(constants.DefaultHealthCheckTimeout)
		}
	}

	if c.Startup.MaxRetries == 0 {
		c.Startup.MaxRetries = def.Startup.MaxRetries
	}
	if c.Startup.RetryPolicy == "" {
		c.Startup.RetryPolicy = def.Startup.RetryPolicy
	}
	if c.Startup.RetryDelay.Duration == 0 {
		c.Startup.RetryDelay = def.Startup.RetryDelay
	}
	if c.Startup.MaxRetryDelay.Duration == 0 {
		c.Startup.MaxRetryDelay = def.Startup.MaxRetryDelay
	}

	if c.Monitor.Interval.Duration == 0 {
		c.Monitor.Interval = def.Monitor.Interval
	}
	if c.Monitor.Staleness.Duration == 0 {
		c.Monitor.Staleness = def.Monitor.Staleness
	}

	d := &c.Dependencies
	if d.BackendDir == "" {
		d.BackendDir = def.Dependencies.BackendDir
	}
	if d.FrontendDir == "" {
		d.FrontendDir = def.Dependencies.FrontendDir
	}
	if d.RequirementsFile == "" {
		d.RequirementsFile = def.Dependencies.RequirementsFile
	}
	if d.PipCommand == "" {
		d.PipCommand = def.Dependencies.PipCommand
	}
	if d.NpmCommand == "" {
		d.NpmCommand = def.Dependencies.NpmCommand
	}
	if len(d.CredentialProviders) == 0 {
		d.CredentialProviders = def.Dependencies.CredentialProviders
	}

	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = def.Server.Port
	}
}

// resolvePaths makes relative directories absolute against base and expands "~/"
func (c *Config) resolvePaths(base string) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}
	resolve := func(p string) string {
		switch {
		case p == "":
			return p
		case strings.HasPrefix(p, "~/") && homeDir != "":
			return filepath.Join(homeDir, p[2:])
		case filepath.IsAbs(p):
			return p
		default:
			return filepath.Join(base, p)
		}
	}

	for i := range c.Services {
		c.Services[i].WorkingDir = resolve(c.Services[i].WorkingDir)
	}
	c.Dependencies.BackendDir = resolve(c.Dependencies.BackendDir)
	c.Dependencies.FrontendDir = resolve(c.Dependencies.FrontendDir)

	if c.Database.Path == "" {
		dataDir, err := xdg.DataDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		c.Database.Path = filepath.Join(dataDir, "stackmon.db")
	} else {
		c.Database.Path = resolve(c.Database.Path)
	}
	return nil
}

// Manager handles configuration loading and validation
type Manager struct {
	Config *Config
	// Path is the file the configuration was read from, empty for built-in defaults
	Path string
}

// New creates a manager holding the built-in defaults
func New() *Manager {
	return &Manager{Config: Default()}
}

// Load reads the configuration from path, or discovers it when path is empty.
// Discovery walks from the working directory up to the filesystem root and
// then tries the XDG config directory. Without a file the defaults are used
// with paths relative to the working directory.
func (m *Manager) Load(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	if path == "" {
		path = findConfigPath(cwd)
	}

	cfg := &Config{}
	base := cwd
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return err
		}
		base = filepath.Dir(path)
		logger.WithField("path", path).Debug("Loaded configuration")
	} else {
		cfg = Default()
		logger.Debug("No configuration file found, using defaults")
	}

	cfg.applyDefaults()
	if err := cfg.resolvePaths(base); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.Config = cfg
	m.Path = path
	return nil
}

// Save writes the configuration as TOML to path
func (m *Manager) Save(path string) error {
	data, err := toml.Marshal(m.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, constants.FilePermissions)
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.ConfigNotFound(path)
		}
		return errors.Wrap(errors.ErrFileRead, "Failed to read configuration", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return errors.ConfigParseError(path, err)
	}
	return nil
}

// findConfigPath searches dir and its parents, then the XDG config directory
func findConfigPath(dir string) string {
	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	configDir, err := xdg.ConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.toml", "config.yaml"} {
		candidate := filepath.Join(configDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
