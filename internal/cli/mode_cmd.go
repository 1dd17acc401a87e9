package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/service"
	"github.com/spf13/cobra"
)

func newModeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Choose when location samples may drive the AutoTimer",
	}
	cmd.AddCommand(newModeShowCmd(app), newModeSetCmd(app))
	return cmd
}

func newModeShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current location mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			s, err := app.Modes.GetSettings(ctx)
			if err != nil {
				return err
			}
			perms, err := app.Permissions.Current(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatModeSettings(s, perms))
			return nil
		},
	}
}

func newModeSetCmd(app *App) *cobra.Command {
	var mode domain.Mode
	cmd := &cobra.Command{
		Use:       "set [MODE]",
		Short:     "Change the location mode (picker when MODE is omitted)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(domain.ModeForegroundOnly), string(domain.ModeBackgroundAllowed), string(domain.ModeFullBackground)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmdContext(cmd)
			if len(args) == 1 {
				if err := (modeValue{mode: &mode}).Set(args[0]); err != nil {
					return fmt.Errorf("mode %w", err)
				}
			} else {
				if !app.interactive() {
					return fmt.Errorf("mode required: %s", modeNames())
				}
				current, err := app.Modes.GetSettings(ctx)
				if err != nil {
					return err
				}
				if mode, err = app.prompter().SelectMode(ctx, current.Mode); err != nil {
					return err
				}
			}
			return applyMode(ctx, cmd, app, mode)
		},
	}
	return cmd
}

// applyMode sets mode, asking for the background grant when the mode needs
// it and the terminal allows a prompt.
func applyMode(ctx context.Context, cmd *cobra.Command, app *App, mode domain.Mode) error {
	out := cmd.OutOrStdout()
	res, err := app.Modes.SetMode(ctx, mode)
	if err != nil {
		return err
	}
	if res.PermissionRequired {
		if !app.interactive() {
			return fmt.Errorf("%s needs the \"always\" location permission; run `jobclock permission request` first", mode)
		}
		granted, err := app.Modes.RequestBackgroundPermission(ctx)
		if err != nil {
			return err
		}
		if !granted {
			fmt.Fprintf(out, "Background permission not granted; staying in %s\n", res.Settings.Mode)
			return nil
		}
		if res, err = app.Modes.SetMode(ctx, mode); err != nil {
			return err
		}
	}
	printModeResult(cmd, res)
	return nil
}

func printModeResult(cmd *cobra.Command, res service.ModeResult) {
	out := cmd.OutOrStdout()
	if !res.Changed {
		fmt.Fprintf(out, "Location mode is %s\n", formatter.ModeLabel(res.Settings.Mode))
	} else {
		fmt.Fprintf(out, "Location mode set to %s\n", formatter.ModeLabel(res.Settings.Mode))
	}
	if n := len(res.ClampedJobIDs); n > 0 {
		fmt.Fprintf(out, "Raised the geofence radius of %d job(s) to %d m\n", n, domain.MinRadius(res.Settings.Mode))
	}
}
