package cli

import (
	"github.com/spf13/cobra"
)

// createRootCommand creates the root command with global flags
func createRootCommand(opts *Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackmon",
		Short: "Supervisor and health monitor for a local development stack",
		Long: `stackmon starts a set of dependent local services (an API backend and a web
frontend by default) in dependency order, waits until each one is ready,
checks the Python, Node and API key prerequisites, and reports the health
of the whole stack. It runs the stack in-process or drives a stackmon server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to stackmon.toml or stackmon.yaml")
	flags.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.Server, "server", "", "URL of a stackmon server (env STACKMON_SERVER)")

	return rootCmd
}
