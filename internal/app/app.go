// Package app assembles the stackmon components and hands them to the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"stackmon/internal/cli"
	"stackmon/internal/cli/commands"
	"stackmon/internal/config"
	"stackmon/internal/credentials"
	"stackmon/internal/db"
	"stackmon/internal/dependency"
	"stackmon/internal/health"
	"stackmon/internal/logger"
	"stackmon/internal/server"
	"stackmon/internal/service"
	"stackmon/internal/xdg"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// stopTimeout bounds the final shutdown of the services when the process exits
const stopTimeout = 30 * time.Second

// App represents the main application
type App struct {
	Config      *config.Manager
	DB          *db.DB
	Credentials *credentials.Store
	Validator   *dependency.Validator
	Services    *service.Manager
	Monitor     *health.Monitor
	Registry    *prometheus.Registry
	// LogDir receives the output of the managed services
	LogDir string

	CLI *cli.Manager
}

// New creates a new application instance
func New() *App {
	return &App{}
}

// Run starts the application
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext runs the CLI with a context for cancellation
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	a.CLI = cli.New(a)
	if len(args) == 0 {
		return a.CLI.ExecuteWithContext(ctx, []string{"--help"})
	}
	return a.CLI.ExecuteWithContext(ctx, args)
}

// Local builds the stack in this process
func (a *App) Local(ctx context.Context, configPath string) (commands.Backend, error) {
	if err := a.build(configPath); err != nil {
		return nil, err
	}
	return &LocalBackend{app: a}, nil
}

// Serve builds the stack and runs the HTTP API over it until ctx ends
func (a *App) Serve(ctx context.Context, configPath, host string, port int) error {
	if err := a.build(configPath); err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config.Config
	serverConfig := server.DefaultConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	if host != "" {
		serverConfig.Host = host
	}
	if port != 0 {
		serverConfig.Port = port
	}
	// a full startup waits on every readiness budget
	serverConfig.WriteTimeout = 0
	serverConfig.LogDir = a.LogDir

	srv := server.New(serverConfig, a.Monitor, a.Credentials, a.Registry)

	a.Monitor.StartMonitoring(cfg.Monitor.Interval.Duration)
	if cfg.Monitor.AutoStart {
		go func() {
			result := a.Monitor.StartServices(ctx)
			if !result.Success {
				logger.WithField("failed", result.FailedServices).Error(result.Message)
			}
		}()
	}

	logger.WithFields(logger.Fields{
		"host":      serverConfig.Host,
		"port":      serverConfig.Port,
		"operation": "server_start",
	}).Info("Starting stackmon server")
	return srv.Start(ctx)
}

// build wires the components from the configuration at configPath
func (a *App) build(configPath string) error {
	cfgManager := config.New()
	if err := cfgManager.Load(configPath); err != nil {
		return err
	}
	cfg := cfgManager.Config
	a.Config = cfgManager

	database, err := db.New(db.DefaultConfig(cfg.Database.Path))
	if err != nil {
		return err
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return err
	}
	a.DB = database

	a.Credentials = credentials.NewStore(db.NewCredentialRepository(database))
	a.Validator = dependency.NewValidator(cfg.Dependencies, dependency.ExecRunner{}, a.Credentials)

	a.LogDir = xdg.LogsDir()
	a.Services = service.NewManager(cfg.Graph(), service.Options{
		MaxRetries:  cfg.Startup.MaxRetries,
		Retry:       service.NewRetryPolicy(cfg.Startup),
		Environment: a.Credentials.Environment,
		LogDir:      a.LogDir,
	})

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Monitor = health.NewMonitor(a.Services, a.Validator, health.Options{
		Staleness:  cfg.Monitor.Staleness.Duration,
		Registerer: a.Registry,
	})

	logger.WithFields(logger.Fields{
		"config":   cfgManager.Path,
		"services": a.Services.ServiceNames(),
		"database": cfg.Database.Path,
	}).Debug("Stack assembled")
	return nil
}

// Close stops the monitoring loop and every managed service, then releases the database
func (a *App) Close() error {
	if a.Monitor != nil {
		a.Monitor.StopMonitoring()
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		result := a.Monitor.StopAllServices(ctx)
		cancel()
		if !result.Success {
			logger.WithField("failed", result.FailedServices).Warn(result.Message)
		}
	}
	if a.Credentials != nil {
		a.Credentials.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
