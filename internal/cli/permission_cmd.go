package cli

import (
	"fmt"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/spf13/cobra"
)

func newPermissionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permission",
		Short: "Manage the recorded location permission",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the location permission",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := app.Permissions.Current(cmdContext(cmd))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Location permission: %s\n", p.Level)
				return nil
			},
		},
		&cobra.Command{
			Use:       "grant LEVEL",
			Short:     "Record a permission level (none|foreground|always)",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"none", "foreground", "always"},
			RunE: func(cmd *cobra.Command, args []string) error {
				level, ok := domain.ParsePermissionLevel(args[0])
				if !ok {
					return fmt.Errorf("level must be none|foreground|always")
				}
				p, err := app.Permissions.Grant(cmdContext(cmd), level)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Location permission: %s\n", p.Level)
				return nil
			},
		},
		&cobra.Command{
			Use:   "revoke",
			Short: "Withdraw the location permission",
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := app.Permissions.Revoke(cmdContext(cmd)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Location permission: none")
				return nil
			},
		},
		&cobra.Command{
			Use:   "request",
			Short: "Ask for the background (always) permission",
			RunE: func(cmd *cobra.Command, args []string) error {
				granted, err := app.Modes.RequestBackgroundPermission(cmdContext(cmd))
				if err != nil {
					return err
				}
				if granted {
					fmt.Fprintln(cmd.OutOrStdout(), "Background location permission granted")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Background location permission not granted")
				}
				return nil
			},
		},
	)
	return cmd
}
