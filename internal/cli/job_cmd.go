package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/alexanderramin/jobclock/internal/service"
	"github.com/spf13/cobra"
)

func newJobCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs and their geofences",
	}
	cmd.AddCommand(
		newJobAddCmd(app),
		newJobListCmd(app),
		newJobShowCmd(app),
		newJobRemoveCmd(app),
		newJobSetAutoTimerCmd(app),
		newJobImportCmd(app),
	)
	return cmd
}

func newJobAddCmd(app *App) *cobra.Command {
	var in JobInput
	var lat, lon float64
	var radius, delayStart, delayStop int
	var notifications bool

	cmd := &cobra.Command{
		Use:   "add [NAME]",
		Short: "Add a job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if len(args) == 1 {
				in.Name = args[0]
			}
			flags := cmd.Flags()
			if flags.Changed("lat") {
				in.Latitude = strconv.FormatFloat(lat, 'f', -1, 64)
			}
			if flags.Changed("lon") {
				in.Longitude = strconv.FormatFloat(lon, 'f', -1, 64)
			}
			if flags.Changed("radius") {
				in.Radius = strconv.Itoa(radius)
			}
			if flags.Changed("delay-start") {
				in.DelayStart = strconv.Itoa(delayStart)
			}
			if flags.Changed("delay-stop") {
				in.DelayStop = strconv.Itoa(delayStop)
			}

			if in.Name == "" {
				if !app.interactive() {
					return fmt.Errorf("job name is required")
				}
				if err := app.prompter().JobDetails(ctx, &in); err != nil {
					return err
				}
			}

			j, err := in.toJob()
			if err != nil {
				return err
			}
			j.AutoTimer.NotificationsEnabled = notifications
			if err := app.Jobs.Create(ctx, j); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added job %s (%s)\n", formatter.Bold(j.Name), j.ID)
			if !j.HasLocation() {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No location set; AutoTimer cannot be enabled until one is."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Address, "address", "", "Street address")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	cmd.Flags().IntVar(&radius, "radius", 0, "Geofence radius in metres")
	cmd.Flags().IntVar(&delayStart, "delay-start", 0, "Minutes inside before the timer starts")
	cmd.Flags().IntVar(&delayStop, "delay-stop", 0, "Minutes outside before the timer stops")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "Send AutoTimer notifications for this job")
	return cmd
}

func newJobListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.Jobs.List(cmdContext(cmd))
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs yet. Add one with `jobclock job add`.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJobList(jobs, app.Engine.Mode().Mode))
			return nil
		},
	}
}

func newJobShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := resolveJob(cmdContext(cmd), app, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJob(j, app.Engine.Mode().Mode))
			return nil
		},
	}
}

func newJobRemoveCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove JOB",
		Short: "Remove a job and its recorded days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			j, err := resolveJob(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !yes && app.interactive() {
				ok, err := app.prompter().Confirm(ctx, fmt.Sprintf("Remove %s?", j.Name), "Its recorded work days are removed too.")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if j.AutoTimer.Enabled {
				if err := app.Engine.DisableAutoTimer(ctx, j.ID); err != nil {
					return err
				}
			}
			if err := app.Jobs.Delete(ctx, j.ID); err != nil {
				if errors.Is(err, service.ErrJobInUse) {
					return fmt.Errorf("%s has a running session; stop it first", j.Name)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", j.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newJobSetAutoTimerCmd(app *App) *cobra.Command {
	var radius, delayStart, delayStop int
	var notifications bool
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "set-autotimer JOB",
		Short: "Change a job's location, geofence radius, delays or notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			j, err := resolveJob(ctx, app, args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("lat") != flags.Changed("lon") {
				return fmt.Errorf("--lat and --lon must be given together")
			}
			if flags.Changed("lat") {
				in := JobInput{
					Name:      j.Name,
					Latitude:  strconv.FormatFloat(lat, 'f', -1, 64),
					Longitude: strconv.FormatFloat(lon, 'f', -1, 64),
				}
				parsed, err := in.toJob()
				if err != nil {
					return err
				}
				j.Location = parsed.Location
			}
			if flags.Changed("radius") {
				j.AutoTimer.GeofenceRadiusMeters = radius
			}
			if flags.Changed("delay-start") {
				j.AutoTimer.DelayStartMinutes = delayStart
			}
			if flags.Changed("delay-stop") {
				j.AutoTimer.DelayStopMinutes = delayStop
			}
			if flags.Changed("notifications") {
				j.AutoTimer.NotificationsEnabled = notifications
			}
			if err := app.Jobs.Update(ctx, j); err != nil {
				return err
			}
			if err := app.Engine.ReloadJobs(ctx); err != nil {
				return err
			}
			updated, err := app.Jobs.GetByID(ctx, j.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatJob(updated, app.Engine.Mode().Mode))
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	cmd.Flags().IntVar(&radius, "radius", 0, "Geofence radius in metres")
	cmd.Flags().IntVar(&delayStart, "delay-start", 0, "Minutes inside before the timer starts (0-10)")
	cmd.Flags().IntVar(&delayStop, "delay-stop", 0, "Minutes outside before the timer stops (0-10)")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "Send AutoTimer notifications for this job")
	return cmd
}

func newJobImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import jobs and past work days from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportJobs(cmdContext(cmd), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d job(s) and %d work day(s)\n", len(res.Jobs), res.WorkDayCount)
			if res.MergedWorkDays > 0 {
				fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("%d work day(s) merged into the same date", res.MergedWorkDays)))
			}
			fmt.Fprintln(out, formatter.FormatJobList(res.Jobs, app.Engine.Mode().Mode))
			return nil
		},
	}
}
