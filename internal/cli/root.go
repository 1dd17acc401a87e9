package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level "jobclock" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "jobclock",
		Short:         "Work-hour tracking with geofenced automatic start and stop",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Engine == nil {
				return nil
			}
			return app.Engine.Start(cmdContext(cmd))
		},
	}

	root.AddCommand(
		newJobCmd(app),
		newAutoTimerCmd(app),
		newSessionCmd(app),
		newModeCmd(app),
		newPermissionCmd(app),
		newNotificationsCmd(app),
		newWorkDayCmd(app),
		newStatusCmd(app),
		newTrackCmd(app),
	)

	return root
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
