package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start, pause and stop the work timer by hand",
	}

	cmd.AddCommand(
		newSessionStartCmd(app),
		newSessionPauseCmd(app),
		newSessionResumeCmd(app),
		newSessionStopCmd(app),
		newSessionElapsedCmd(app),
	)

	return cmd
}

func noSession(err error) error {
	if errors.Is(err, autotimer.ErrNoActiveSession) {
		return fmt.Errorf("no session is running")
	}
	return err
}

func newSessionStartCmd(app *App) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "start JOB",
		Short: "Start a manual session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			j, err := resolveJob(ctx, app, args[0])
			if err != nil {
				return err
			}
			err = app.Engine.StartManual(ctx, j.ID, notes)
			if errors.Is(err, autotimer.ErrSessionActive) {
				return fmt.Errorf("a session is already running; stop it first")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started session for %s\n", formatter.Bold(j.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes stored with the work day")
	return cmd
}

func newSessionPauseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Engine.PauseActive(cmdContext(cmd)); err != nil {
				return noSession(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session paused")
			return nil
		},
	}
}

func newSessionResumeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Engine.ResumeActive(cmdContext(cmd)); err != nil {
				return noSession(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session resumed")
			return nil
		},
	}
}

func newSessionStopCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the session and record the hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Engine.StopActive(cmdContext(cmd))
			if err != nil {
				return noSession(err)
			}
			verb := "Recorded"
			if res.Merged {
				verb = "Added"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s (%s total)\n",
				verb, formatter.FormatHours(res.Hours), res.WorkDay.Date, formatter.FormatHours(res.WorkDay.Hours))
			return nil
		},
	}
}

func newSessionElapsedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "elapsed",
		Short: "Print the running session's elapsed time",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.Engine.ElapsedSeconds(cmdContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatElapsed(n))
			return nil
		},
	}
}
