package cli

import (
	"context"
	"io"
	"os"

	"stackmon/internal/cli/commands"
	"stackmon/internal/client"
	"stackmon/internal/constants"
	"stackmon/internal/lazy"
	"stackmon/internal/logger"

	"github.com/spf13/cobra"
)

// Options holds the global flags
type Options struct {
	ConfigPath string
	LogLevel   string
	Server     string
}

// Factory builds the in-process stack
type Factory interface {
	// Local assembles the stack described by the configuration at configPath
	Local(ctx context.Context, configPath string) (commands.Backend, error)
	// Serve runs the HTTP server over the stack until ctx ends
	Serve(ctx context.Context, configPath, host string, port int) error
}

// Manager handles CLI operations
type Manager struct {
	factory Factory
	opts    Options
	rootCmd *cobra.Command
	backend *lazy.Lazy[commands.Backend]
}

// New creates a new CLI manager
func New(factory Factory) *Manager {
	m := &Manager{factory: factory}
	m.backend = lazy.New(m.loadBackend)
	m.rootCmd = createRootCommand(&m.opts)
	m.rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger.SetLevel(m.opts.LogLevel)
		// stdout carries command output
		logger.SetOutput(cmd.ErrOrStderr())
		if m.opts.Server == "" {
			m.opts.Server = os.Getenv(constants.EnvServer)
		}
	}
	m.setupCommands()
	return m
}

// Root returns the root command
func (m *Manager) Root() *cobra.Command {
	return m.rootCmd
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	defer m.closeBackend()
	m.rootCmd.SetArgs(args)
	return m.rootCmd.ExecuteContext(ctx)
}

// resolveBackend returns the backend shared by every command of this run
func (m *Manager) resolveBackend(cmd *cobra.Command) (commands.Backend, error) {
	return m.backend.Get(cmd.Context())
}

// loadBackend returns the remote backend when a server is named and the
// in-process stack otherwise
func (m *Manager) loadBackend(ctx context.Context) (commands.Backend, error) {
	if m.opts.Server != "" {
		c, err := client.New(m.opts.Server)
		if err != nil {
			return nil, err
		}
		logger.WithField("server", c.BaseURL()).Debug("Using remote stackmon server")
		return NewRemoteBackend(c), nil
	}
	return m.factory.Local(ctx, m.opts.ConfigPath)
}

func (m *Manager) closeBackend() {
	b, ok := m.backend.Peek()
	m.backend.Reset()
	if !ok {
		return
	}
	if closer, ok := b.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.WithError(err).Warn("Failed to release local stack")
		}
	}
}

// setupCommands sets up all CLI commands
func (m *Manager) setupCommands() {
	for _, cmd := range commands.StackCommands(m.resolveBackend) {
		m.rootCmd.AddCommand(cmd)
	}

	serviceCmd := &cobra.Command{
		Use:     "service",
		Short:   "Single service commands",
		Aliases: []string{"svc"},
	}
	for _, cmd := range commands.ServiceCommands(m.resolveBackend) {
		serviceCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(serviceCmd)

	credsCmd := &cobra.Command{
		Use:     "creds",
		Short:   "Provider API key commands",
		Aliases: []string{"credentials"},
	}
	for _, cmd := range commands.CredentialCommands(m.resolveBackend) {
		credsCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(credsCmd)

	m.rootCmd.AddCommand(commands.ServeCommand(func(ctx context.Context, host string, port int) error {
		return m.factory.Serve(ctx, m.opts.ConfigPath, host, port)
	}))
}
