package commands

import (
	"fmt"

	"stackmon/internal/logger"

	"github.com/spf13/cobra"
)

// ServiceCommands creates single-service commands
func ServiceCommands(backend BackendFunc) []*cobra.Command {
	commands := []*cobra.Command{}

	// stackmon service start <service-name>
	startCmd := &cobra.Command{
		Use:   "start <service-name>",
		Short: "Start a service",
		Args:  requireServiceName,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			result, err := b.StartService(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStartup(cmd.OutOrStdout(), result)
			if err := result.Err(); err != nil {
				return err
			}

			if sup, ok := b.(Supervisor); ok {
				logger.WithField("service", args[0]).Info("Service running, press Ctrl+C to stop")
				return sup.Supervise(cmd.Context())
			}
			return nil
		},
	}
	commands = append(commands, startCmd)

	// stackmon service stop <service-name>
	stopCmd := &cobra.Command{
		Use:   "stop <service-name>",
		Short: "Stop a service",
		Args:  requireServiceName,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			result, err := b.StopService(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStop(cmd.OutOrStdout(), result)
			return result.Err()
		},
	}
	commands = append(commands, stopCmd)

	// stackmon service logs <service-name>
	logsCmd := &cobra.Command{
		Use:   "logs <service-name>",
		Short: "Show the captured output of a service",
		Args:  requireServiceName,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("lines")
			lines, err := b.Logs(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	logsCmd.Flags().IntP("lines", "n", 50, "Number of lines to show")
	commands = append(commands, logsCmd)

	return commands
}

func requireServiceName(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("requires exactly 1 service name. Use 'stackmon order' to see the configured services")
	}
	return nil
}
