package cli

import (
	"fmt"

	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/spf13/cobra"
)

func newNotificationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show or change notification settings",
	}
	cmd.AddCommand(newNotificationsShowCmd(app), newNotificationsSetCmd(app))
	return cmd
}

func printNotificationSettings(cmd *cobra.Command, s domain.NotificationSettings) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-16s %s\n", "Notifications", formatter.OnOff(s.Enabled))
	fmt.Fprintf(out, "%-16s %s\n", "AutoTimer", formatter.OnOff(s.AutoTimer))
	fmt.Fprintf(out, "%-16s %s\n", "Work reminders", formatter.OnOff(s.WorkReminders))
}

func newNotificationsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show notification settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Notifications.Get(cmdContext(cmd))
			if err != nil {
				return err
			}
			printNotificationSettings(cmd, s)
			return nil
		},
	}
}

func newNotificationsSetCmd(app *App) *cobra.Command {
	var enabled, autoTimer, reminders bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change notification settings; unspecified flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			s, err := app.Notifications.Get(ctx)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("enabled") {
				s.Enabled = enabled
			}
			if flags.Changed("autotimer") {
				s.AutoTimer = autoTimer
			}
			if flags.Changed("reminders") {
				s.WorkReminders = reminders
			}
			if err := app.Notifications.Set(ctx, s); err != nil {
				return err
			}
			printNotificationSettings(cmd, s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&enabled, "enabled", true, "All notifications")
	cmd.Flags().BoolVar(&autoTimer, "autotimer", true, "AutoTimer start and stop notifications")
	cmd.Flags().BoolVar(&reminders, "reminders", true, "Work reminders")
	return cmd
}
