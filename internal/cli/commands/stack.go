package commands

import (
	"fmt"
	"strings"

	"stackmon/internal/logger"
	"stackmon/internal/types"

	"github.com/spf13/cobra"
)

// StackCommands creates the whole-stack commands
func StackCommands(backend BackendFunc) []*cobra.Command {
	commands := []*cobra.Command{}

	// stackmon up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Validate dependencies and start every service in dependency order",
		Long: `Validate the prerequisites, then start the services in dependency order.
If any service fails the ones already started are stopped again.

Locally the command stays in the foreground and stops the stack on interrupt.
Against a server (--server) it returns once the server has started the stack.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			result, err := b.StartServices(cmd.Context())
			if err != nil {
				return err
			}
			printStartup(cmd.OutOrStdout(), result)
			if err := result.Err(); err != nil {
				return err
			}

			if sup, ok := b.(Supervisor); ok {
				logger.Info("Services running, press Ctrl+C to stop")
				return sup.Supervise(cmd.Context())
			}
			return nil
		},
	}
	commands = append(commands, upCmd)

	// stackmon down
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Stop every running service in reverse dependency order",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			result, err := b.StopAllServices(cmd.Context())
			if err != nil {
				return err
			}
			printStop(cmd.OutOrStdout(), result)
			return result.Err()
		},
	}
	commands = append(commands, downCmd)

	// stackmon health
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show the health of every service and prerequisite",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			refresh, _ := cmd.Flags().GetBool("refresh")
			asJSON, _ := cmd.Flags().GetBool("json")

			h, err := b.Health(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), h)
			}
			printHealth(cmd.OutOrStdout(), h)
			if h.Overall == types.Unhealthy {
				return fmt.Errorf("stack is %s", h.Overall)
			}
			return nil
		},
	}
	healthCmd.Flags().BoolP("refresh", "r", false, "Run a new sweep instead of using the cached snapshot")
	healthCmd.Flags().Bool("json", false, "Print the snapshot as JSON")
	commands = append(commands, healthCmd)

	// stackmon status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")

			s, err := b.Status(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running: %d/%d\n", s.Health.RunningCount(), len(s.Health.Services))
			fmt.Fprintf(out, "Monitoring: %t\n", s.Monitoring)
			fmt.Fprintf(out, "Connections: %d\n", s.ActiveConnections)
			fmt.Fprintf(out, "Uptime: %.0fs\n\n", s.UptimeSeconds)
			printHealth(out, s.Health)
			return nil
		},
	}
	statusCmd.Flags().Bool("json", false, "Print the status as JSON")
	commands = append(commands, statusCmd)

	// stackmon order
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Show the startup and shutdown order of the services",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			startup, shutdown, err := b.Order(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "startup:  %s\n", strings.Join(startup, " -> "))
			fmt.Fprintf(cmd.OutOrStdout(), "shutdown: %s\n", strings.Join(shutdown, " -> "))
			return nil
		},
	}
	commands = append(commands, orderCmd)

	// stackmon validate
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check Python packages, Node modules and API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			result, err := b.Validate(cmd.Context())
			if err != nil {
				return err
			}
			printValidation(cmd.OutOrStdout(), result)
			if !result.Success {
				return fmt.Errorf("dependency validation failed")
			}
			return nil
		},
	}
	commands = append(commands, validateCmd)

	// stackmon watch
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print every new health snapshot until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return b.WatchHealth(cmd.Context(), func(h *types.HealthStatus) {
				printHealth(out, h)
				fmt.Fprintln(out)
			})
		},
	}
	commands = append(commands, watchCmd)

	return commands
}
