package cli

import (
	"fmt"

	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newWorkDayCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workday",
		Short: "Inspect recorded work days",
	}
	cmd.AddCommand(newWorkDayListCmd(app))
	return cmd
}

func newWorkDayListCmd(app *App) *cobra.Command {
	var jobRef string
	var days int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent work days",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			jobID := ""
			if jobRef != "" {
				j, err := resolveJob(ctx, app, jobRef)
				if err != nil {
					return err
				}
				jobID = j.ID
			}
			list, err := app.WorkDays.ListRecent(ctx, days, jobID)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No work days recorded in that range.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatWorkDays(list, app.jobNames(ctx), app.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&jobRef, "job", "", "Only this job")
	cmd.Flags().IntVar(&days, "days", 7, "Number of recent days to show")
	return cmd
}
