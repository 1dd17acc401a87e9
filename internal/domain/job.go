package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	MinGeofenceRadius               = 25
	MinFullBackgroundGeofenceRadius = 50
	DefaultGeofenceRadius           = 100
	MaxDelayMinutes                 = 10
)

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AutoTimerConfig struct {
	Enabled              bool
	GeofenceRadiusMeters int
	DelayStartMinutes    int
	DelayStopMinutes     int
	NotificationsEnabled bool
}

// DefaultAutoTimerConfig returns a disabled configuration with the
// radius and delays a new job starts with.
func DefaultAutoTimerConfig() AutoTimerConfig {
	return AutoTimerConfig{
		GeofenceRadiusMeters: DefaultGeofenceRadius,
		DelayStartMinutes:    2,
		DelayStopMinutes:     2,
		NotificationsEnabled: true,
	}
}

// MinRadius returns the smallest geofence radius permitted in the given mode.
func MinRadius(mode Mode) int {
	if mode == ModeFullBackground {
		return MinFullBackgroundGeofenceRadius
	}
	return MinGeofenceRadius
}

// Normalize clamps every field into its permitted range for mode.
// Out-of-range values are clamped rather than rejected.
func (c AutoTimerConfig) Normalize(mode Mode) AutoTimerConfig {
	if min := MinRadius(mode); c.GeofenceRadiusMeters < min {
		c.GeofenceRadiusMeters = min
	}
	c.DelayStartMinutes = clampInt(c.DelayStartMinutes, 0, MaxDelayMinutes)
	c.DelayStopMinutes = clampInt(c.DelayStopMinutes, 0, MaxDelayMinutes)
	return c
}

func (c AutoTimerConfig) DelayStart() time.Duration {
	return time.Duration(c.DelayStartMinutes) * time.Minute
}

func (c AutoTimerConfig) DelayStop() time.Duration {
	return time.Duration(c.DelayStopMinutes) * time.Minute
}

type Job struct {
	ID        string
	Name      string
	Address   string
	Location  *Coordinate
	AutoTimer AutoTimerConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrJobNameRequired = errors.New("job name is required")
	ErrJobLocation     = errors.New("job location is out of range")
)

// Validate checks the fields a job must carry regardless of mode.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.Name) == "" {
		return ErrJobNameRequired
	}
	if j.Location != nil {
		if j.Location.Latitude < -90 || j.Location.Latitude > 90 ||
			j.Location.Longitude < -180 || j.Location.Longitude > 180 {
			return ErrJobLocation
		}
	}
	return nil
}

// HasLocation reports whether the job can be used for geofencing.
func (j *Job) HasLocation() bool {
	return j.Location != nil
}

// EffectiveRadius returns the geofence radius the engine evaluates against
// in the given mode.
func (j *Job) EffectiveRadius(mode Mode) int {
	return j.AutoTimer.Normalize(mode).GeofenceRadiusMeters
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
