package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/spf13/cobra"
)

func newAutoTimerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "autotimer",
		Aliases: []string{"at"},
		Short:   "Control geofenced automatic start and stop",
	}
	cmd.AddCommand(
		newAutoTimerEnableCmd(app),
		newAutoTimerDisableCmd(app),
		newAutoTimerStatusCmd(app),
		newAutoTimerSampleCmd(app),
		newAutoTimerManualCmd(app),
	)
	return cmd
}

func newAutoTimerEnableCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "enable JOB",
		Short: "Give the AutoTimer to a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			out := cmd.OutOrStdout()
			j, err := resolveJob(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !j.HasLocation() {
				return fmt.Errorf("%s has no location; set one with `jobclock job set-autotimer %s --lat .. --lon ..`", j.Name, args[0])
			}

			if !force {
				res, err := app.Engine.EnableAutoTimer(ctx, j.ID)
				if err != nil {
					return err
				}
				if res.Conflict == nil {
					fmt.Fprintf(out, "AutoTimer enabled for %s\n", formatter.Bold(j.Name))
					return nil
				}
				if !app.interactive() {
					return fmt.Errorf("AutoTimer already belongs to %s; use --force to switch", res.Conflict.JobName)
				}
				ok, err := app.prompter().Confirm(ctx,
					fmt.Sprintf("AutoTimer already belongs to %s. Switch to %s?", res.Conflict.JobName, j.Name),
					"Only one job can use AutoTimer at a time. A running automatic session is saved first.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Kept AutoTimer on "+res.Conflict.JobName)
					return nil
				}
			}

			sw, err := app.Engine.ForceEnableAutoTimer(ctx, j.ID)
			if err != nil {
				return err
			}
			if sw.Finalized != nil {
				fmt.Fprintf(out, "Saved %s from the previous job\n", formatter.FormatHours(sw.Finalized.Hours))
			}
			fmt.Fprintf(out, "AutoTimer enabled for %s\n", formatter.Bold(j.Name))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Take the AutoTimer from the job that has it")
	return cmd
}

func newAutoTimerDisableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disable JOB",
		Short: "Turn the AutoTimer off for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			j, err := resolveJob(ctx, app, args[0])
			if err != nil {
				return err
			}
			err = app.Engine.DisableAutoTimer(ctx, j.ID)
			if errors.Is(err, autotimer.ErrNotMonitored) {
				return fmt.Errorf("AutoTimer is not enabled for %s", j.Name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "AutoTimer disabled for %s\n", formatter.Bold(j.Name))
			return nil
		},
	}
}

func newAutoTimerStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the AutoTimer state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus(cmd, app)
		},
	}
}

func newAutoTimerSampleCmd(app *App) *cobra.Command {
	var lat, lon, accuracy float64
	origin := domain.OriginForeground

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Feed one location fix to the AutoTimer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return fmt.Errorf("coordinate out of range")
			}
			err := app.Engine.HandleSample(ctx, autotimer.Sample{
				Coordinate:     domain.Coordinate{Latitude: lat, Longitude: lon},
				AccuracyMeters: accuracy,
				Origin:         origin,
				At:             app.now(),
			})
			if err != nil {
				return err
			}
			st := app.Engine.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", formatter.StateIndicator(st.State), domain.HumanMessage(st))
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	cmd.Flags().Float64Var(&accuracy, "accuracy", 0, "Horizontal accuracy in metres (0 if unknown)")
	cmd.Flags().Var(originValue{origin: &origin}, "origin", "How the fix arrived: foreground|background|relaunch")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newAutoTimerManualCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "manual",
		Short: "Suspend automatic start and stop until the next geofence entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Engine.SetManualMode(cmdContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "AutoTimer set to manual control")
			return nil
		},
	}
}
