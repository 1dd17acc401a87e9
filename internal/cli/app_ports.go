package cli

import (
	"context"
	"os"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/livestatus"
	"github.com/alexanderramin/jobclock/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// PermissionStore is the location grant the user manages from the CLI.
type PermissionStore interface {
	service.PermissionProvider
	Grant(ctx context.Context, level domain.PermissionLevel) (domain.Permissions, error)
	Revoke(ctx context.Context) (domain.Permissions, error)
}

// Prompter collects answers interactively. The huh implementation is used
// on a terminal; tests substitute their own.
type Prompter interface {
	Confirm(ctx context.Context, title, description string) (bool, error)
	SelectMode(ctx context.Context, current domain.Mode) (domain.Mode, error)
	JobDetails(ctx context.Context, in *JobInput) error
}

// TrackDefaults are the config-file values the track command falls back to.
type TrackDefaults struct {
	FeedPath string
	Listen   string
}

// App holds everything the commands use.
type App struct {
	Jobs          service.JobService
	WorkDays      service.WorkDayService
	Modes         service.ModeService
	Notifications service.NotificationSettingsService
	Import        service.ImportService
	Permissions   PermissionStore
	Engine        *autotimer.Engine
	Sessions      autotimer.SessionStore
	Hub           *livestatus.Hub
	Prompt        Prompter
	Track         TrackDefaults
	Log           *logrus.Entry

	// WatchConfig, when set, follows the config file for the lifetime of
	// a long-running command.
	WatchConfig func(ctx context.Context) error

	IsInteractive func() bool
	Now           func() time.Time
}

func (a *App) interactive() bool {
	if a.IsInteractive != nil {
		return a.IsInteractive()
	}
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) prompter() Prompter {
	if a.Prompt != nil {
		return a.Prompt
	}
	return huhPrompter{}
}

// jobNames maps every job ID to its name for display.
func (a *App) jobNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	jobs, err := a.Jobs.List(ctx)
	if err != nil {
		return names
	}
	for _, j := range jobs {
		names[j.ID] = j.Name
	}
	return names
}
