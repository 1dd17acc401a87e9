// Package notify renders AutoTimer notifications and fans them out to
// sinks, subject to the user's notification settings.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/sirupsen/logrus"
)

// Notification is a rendered message ready for delivery.
type Notification struct {
	Kind    domain.NotificationKind `json:"kind"`
	JobName string                  `json:"jobName"`
	Title   string                  `json:"title"`
	Body    string                  `json:"body"`
	At      time.Time               `json:"at"`
}

// Sink delivers rendered notifications somewhere a user can see them.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// SettingsSource supplies the persisted notification preferences.
type SettingsSource interface {
	Get(ctx context.Context) (domain.NotificationSettings, error)
}

// Dispatcher implements autotimer.Notifier.
type Dispatcher struct {
	settings SettingsSource
	sinks    []Sink
	now      func() time.Time
	log      *logrus.Entry
}

var _ autotimer.Notifier = (*Dispatcher)(nil)

func NewDispatcher(settings SettingsSource, log *logrus.Entry, sinks ...Sink) *Dispatcher {
	return &Dispatcher{settings: settings, sinks: sinks, now: time.Now, log: log}
}

// Send renders kind and delivers it to every sink. Nothing is sent when
// notifications or AutoTimer notifications are switched off. Sink errors
// are joined; a failing sink does not stop the others.
func (d *Dispatcher) Send(ctx context.Context, kind domain.NotificationKind, jobName string, params map[string]any) error {
	if d.settings != nil {
		s, err := d.settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("loading notification settings: %w", err)
		}
		if !s.Enabled || !s.AutoTimer {
			d.log.WithField("kind", kind).Debug("notification suppressed by settings")
			return nil
		}
	}

	title, body := Render(kind, jobName, params)
	n := Notification{Kind: kind, JobName: jobName, Title: title, Body: body, At: d.now().UTC()}

	var errs []error
	for _, sink := range d.sinks {
		if err := sink.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Render builds the title and body for a notification kind.
func Render(kind domain.NotificationKind, jobName string, params map[string]any) (title, body string) {
	switch kind {
	case domain.NotifyTimerStarted:
		return "Timer started", fmt.Sprintf("Automatic timer started for %q", jobName)
	case domain.NotifyTimerStopped:
		if h, ok := params["hours"].(float64); ok {
			return "Timer stopped", fmt.Sprintf("Automatic timer stopped for %q, %.2f h recorded", jobName, h)
		}
		return "Timer stopped", fmt.Sprintf("Automatic timer stopped for %q", jobName)
	case domain.NotifyTimerWillStart:
		return "Timer starting soon", fmt.Sprintf("Timer starts in %d min for %q", minutes(params), jobName)
	case domain.NotifyTimerWillStop:
		return "Timer stopping soon", fmt.Sprintf("Timer stops in %d min for %q", minutes(params), jobName)
	default:
		return "Notification", fmt.Sprintf("Event for %q", jobName)
	}
}

func minutes(params map[string]any) int {
	switch v := params["minutes"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 2
}

// LogSink writes notifications to the log.
type LogSink struct {
	Log *logrus.Entry
}

func (s LogSink) Deliver(_ context.Context, n Notification) error {
	s.Log.WithFields(logrus.Fields{
		"kind": n.Kind,
		"job":  n.JobName,
	}).Infof("%s: %s", n.Title, n.Body)
	return nil
}
