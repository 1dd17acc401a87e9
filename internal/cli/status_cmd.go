package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the AutoTimer and the running session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus(cmd, app)
		},
	}
}

func printStatus(cmd *cobra.Command, app *App) error {
	ctx := cmdContext(cmd)
	view := formatter.StatusView{
		Status: app.Engine.Status(),
		Mode:   app.Engine.Mode(),
	}

	s, err := app.Sessions.GetActiveSession(ctx)
	if err != nil {
		return err
	}
	if s != nil {
		view.Session = s
		view.ElapsedSeconds = s.Elapsed(app.now())
		view.SessionJob = sessionJobName(ctx, app, s)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStatus(view))
	return nil
}

func sessionJobName(ctx context.Context, app *App, s *domain.ActiveSession) string {
	if j, err := app.Jobs.GetByID(ctx, s.JobID); err == nil {
		return j.Name
	}
	return s.JobID
}
