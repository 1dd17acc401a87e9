package testutil

import (
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/google/uuid"
)

// Job options
type JobOption func(*domain.Job)

func WithLocation(lat, lon float64) JobOption {
	return func(j *domain.Job) {
		j.Location = &domain.Coordinate{Latitude: lat, Longitude: lon}
	}
}

func WithoutLocation() JobOption {
	return func(j *domain.Job) {
		j.Location = nil
	}
}

func WithRadius(m int) JobOption {
	return func(j *domain.Job) {
		j.AutoTimer.GeofenceRadiusMeters = m
	}
}

func WithDelays(startMin, stopMin int) JobOption {
	return func(j *domain.Job) {
		j.AutoTimer.DelayStartMinutes = startMin
		j.AutoTimer.DelayStopMinutes = stopMin
	}
}

func WithAutoTimer() JobOption {
	return func(j *domain.Job) {
		j.AutoTimer.Enabled = true
	}
}

func WithNotifications(on bool) JobOption {
	return func(j *domain.Job) {
		j.AutoTimer.NotificationsEnabled = on
	}
}

func WithAddress(a string) JobOption {
	return func(j *domain.Job) {
		j.Address = a
	}
}

// NewTestJob returns a job sited in central Madrid with the default
// AutoTimer configuration, disabled.
func NewTestJob(name string, opts ...JobOption) *domain.Job {
	now := time.Now().UTC().Truncate(time.Second)
	j := &domain.Job{
		ID:        uuid.New().String(),
		Name:      name,
		Location:  &domain.Coordinate{Latitude: 40.4168, Longitude: -3.7038},
		AutoTimer: domain.DefaultAutoTimerConfig(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// WorkDay options
type WorkDayOption func(*domain.WorkDay)

func WithHours(h float64) WorkDayOption {
	return func(w *domain.WorkDay) {
		w.Hours = h
		w.Overtime = h > domain.OvertimeHours
	}
}

func WithNotes(n string) WorkDayOption {
	return func(w *domain.WorkDay) {
		w.Notes = n
	}
}

func WithDate(d time.Time) WorkDayOption {
	return func(w *domain.WorkDay) {
		w.Date = d.Format(domain.DateLayout)
	}
}

func WithClockRange(start, end string) WorkDayOption {
	return func(w *domain.WorkDay) {
		w.ActualStart = start
		w.ActualEnd = end
	}
}

func NewTestWorkDay(jobID string, opts ...WorkDayOption) *domain.WorkDay {
	now := time.Now().UTC().Truncate(time.Second)
	w := &domain.WorkDay{
		ID:        uuid.New().String(),
		Date:      now.Format(domain.DateLayout),
		JobID:     jobID,
		Hours:     1,
		Type:      domain.WorkDayWork,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}
