package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// jobclockHuhTheme returns a huh theme matching the formatter palette.
func jobclockHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// JobInput is the editable form of a job's fields.
type JobInput struct {
	Name       string
	Address    string
	Latitude   string
	Longitude  string
	Radius     string
	DelayStart string
	DelayStop  string
}

type huhPrompter struct{}

func (huhPrompter) Confirm(ctx context.Context, title, description string) (bool, error) {
	var ok bool
	err := wizardConfirm(title, description, &ok).RunWithContext(ctx)
	return ok, err
}

func (huhPrompter) SelectMode(ctx context.Context, current domain.Mode) (domain.Mode, error) {
	choice := string(current)
	if err := wizardSelectMode(&choice).RunWithContext(ctx); err != nil {
		return "", err
	}
	m, ok := domain.ParseMode(choice)
	if !ok {
		return "", fmt.Errorf("unknown mode %q", choice)
	}
	return m, nil
}

func (huhPrompter) JobDetails(ctx context.Context, in *JobInput) error {
	return wizardJob(in).RunWithContext(ctx)
}

// wizardSelectMode lists the modes with their permission and battery cost.
func wizardSelectMode(result *string) *huh.Form {
	opts := make([]huh.Option[string], 0, len(domain.ValidModes))
	for _, m := range domain.ValidModes {
		d := domain.ModeDescriptions[m]
		label := fmt.Sprintf("%s  (%s, battery: %s)", d.Title, d.Permissions, d.BatteryImpact)
		opts = append(opts, huh.NewOption(label, string(m)))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("When should AutoTimer run?").
				Description("Wider modes keep tracking when jobclock is not in front, at a battery cost.").
				Options(opts...).
				Value(result),
		),
	).WithTheme(jobclockHuhTheme()).WithShowHelp(false)
}

func wizardConfirm(title, description string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(jobclockHuhTheme()).WithShowHelp(false)
}

func wizardJob(in *JobInput) *huh.Form {
	if in.Radius == "" {
		in.Radius = strconv.Itoa(domain.DefaultGeofenceRadius)
	}
	if in.DelayStart == "" {
		in.DelayStart = "2"
	}
	if in.DelayStop == "" {
		in.DelayStop = "2"
	}
	return huh.NewForm(
		huh.NewGroup(
			requiredInput("Name", "Depot", &in.Name),
			huh.NewInput().Title("Address").Placeholder("optional").Value(&in.Address),
		),
		huh.NewGroup(
			coordinateInput("Latitude", "40.4168", -90, 90, &in.Latitude),
			coordinateInput("Longitude", "-3.7038", -180, 180, &in.Longitude),
			radiusInput(&in.Radius),
		),
		huh.NewGroup(
			delayInput("Start delay (minutes)", &in.DelayStart),
			delayInput("Stop delay (minutes)", &in.DelayStop),
		),
	).WithTheme(jobclockHuhTheme()).WithShowHelp(false)
}

// BackgroundAccessPrompt asks on the terminal whether location may be used
// while jobclock runs unattended. Without a terminal it declines.
func BackgroundAccessPrompt(isInteractive func() bool) func(ctx context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		if isInteractive != nil && !isInteractive() {
			return false, nil
		}
		return huhPrompter{}.Confirm(ctx, "Allow background location?",
			"Full background mode keeps the AutoTimer running without a terminal in front of it.")
	}
}
