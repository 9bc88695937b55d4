package commands

import (
	"bufio"
	"fmt"
	"strings"

	"stackmon/internal/credentials"

	"github.com/spf13/cobra"
)

// CredentialCommands creates the provider key commands
func CredentialCommands(backend BackendFunc) []*cobra.Command {
	commands := []*cobra.Command{}

	// stackmon creds list
	listCmd := &cobra.Command{
		Use:     "list",
		Short:   "List provider keys",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			keys, err := b.Credentials(cmd.Context())
			if err != nil {
				return err
			}
			printCredentials(cmd.OutOrStdout(), keys)
			return nil
		},
	}
	commands = append(commands, listCmd)

	// stackmon creds set <provider> [key]
	setCmd := &cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store a provider key",
		Long: fmt.Sprintf(`Store the API key of a provider. Without a key argument it is read from stdin.
Supported providers: %s`, strings.Join(credentials.Providers, ", ")),
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 2 {
				key = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read key from stdin: %w", err)
				}
				key = strings.TrimSpace(line)
			}

			info, err := b.SetCredential(cmd.Context(), args[0], key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s key %s\n", info.Provider, info.MaskedKey)
			if info.IsTestKey {
				fmt.Fprintln(cmd.OutOrStdout(), "Warning: this looks like a test key and will not count as valid")
			}
			return nil
		},
	}
	commands = append(commands, setCmd)

	// stackmon creds remove <provider>
	removeCmd := &cobra.Command{
		Use:     "remove <provider>",
		Short:   "Delete a stored provider key",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend(cmd)
			if err != nil {
				return err
			}
			if err := b.RemoveCredential(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s key\n", args[0])
			return nil
		},
	}
	commands = append(commands, removeCmd)

	return commands
}
