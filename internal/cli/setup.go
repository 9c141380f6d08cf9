package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/screening-engine/internal/setup"
)

func newSetupCommand() *cobra.Command {
	opts := setup.Options{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the screening MCP server with a desktop MCP client",
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "client config file (default: the desktop client's per-OS location)")
	cmd.PersistentFlags().StringVar(&opts.ServerName, "name", setup.DefaultServerName, "server key under mcpServers")

	register := &cobra.Command{
		Use:   "register",
		Short: "Add or update the server entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := setup.Register(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s -> %s\n", opts.ServerName, entry.Command)
			fmt.Fprintln(cmd.OutOrStdout(), "Restart the MCP client to load the new configuration.")
			return nil
		},
	}
	register.Flags().StringVar(&opts.BinaryPath, "binary", "", "path to the mcp-server binary (default: search PATH)")
	register.Flags().StringVar(&opts.DataDir, "data-dir", "", "data directory passed as SCREENING_DATA_DIR")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether the server is registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := setup.Inspect(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config file: %s\n", st.ConfigPath)
			fmt.Fprintf(out, "Registered:  %t\n", st.Registered)
			if st.Registered {
				fmt.Fprintf(out, "Binary:      %s\n", st.ServerPath)
			}
			for _, issue := range st.Issues {
				fmt.Fprintf(out, "  ! %s\n", issue)
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove the server entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := setup.Unregister(opts)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not registered\n", opts.ServerName)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", opts.ServerName)
			return nil
		},
	}

	cmd.AddCommand(register, status, remove)
	return cmd
}
