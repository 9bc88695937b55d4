package commands

import (
	"github.com/spf13/cobra"
)

// ServeCommand creates the command that runs the HTTP API in the foreground
func ServeCommand(serve ServeFunc) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the stackmon HTTP API server",
		Long: `Run the stackmon HTTP API server in the foreground. The server supervises the
services, runs the monitoring loop and exposes health, metrics and control
endpoints. Other stackmon commands reach it with --server or STACKMON_SERVER.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			return serve(cmd.Context(), host, port)
		},
	}
	serveCmd.Flags().String("host", "", "Address to listen on (default from configuration)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to run the server on (default from configuration)")
	return serveCmd
}
