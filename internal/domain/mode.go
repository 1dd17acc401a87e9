package domain

import "time"

const UserChoiceNotSelected = "not-selected"

type ModeSettings struct {
	Mode                    Mode      `json:"mode"`
	HasBackgroundPermission bool      `json:"hasBackgroundPermission"`
	UserChoice              string    `json:"userChoice"`
	ConfiguredAt            time.Time `json:"dateConfigured,omitempty"`
}

// DefaultModeSettings is what a fresh install runs with.
func DefaultModeSettings() ModeSettings {
	return ModeSettings{
		Mode:       ModeForegroundOnly,
		UserChoice: UserChoiceNotSelected,
	}
}

// RequiresElevatedPermission reports whether the mode needs the "always"
// location grant.
func (m Mode) RequiresElevatedPermission() bool {
	return m == ModeFullBackground
}

// Allows reports whether samples of the given origin may drive the engine.
func (m Mode) Allows(origin SampleOrigin) bool {
	switch origin {
	case OriginForeground, "":
		return true
	case OriginBackground:
		return m == ModeBackgroundAllowed || m == ModeFullBackground
	case OriginRelaunch:
		return m == ModeFullBackground
	}
	return false
}

// SamplingPolicy is the location cadence a mode permits.
type SamplingPolicy struct {
	Mode             Mode
	Interval         time.Duration
	DistanceFilter   float64
	AcceptBackground bool
	AcceptRelaunch   bool
}

// PolicyFor returns the sampling cadence for a mode.
func PolicyFor(m Mode) SamplingPolicy {
	switch m {
	case ModeBackgroundAllowed:
		return SamplingPolicy{Mode: m, Interval: 30 * time.Second, DistanceFilter: 20, AcceptBackground: true}
	case ModeFullBackground:
		return SamplingPolicy{Mode: m, Interval: time.Minute, DistanceFilter: 50, AcceptBackground: true, AcceptRelaunch: true}
	default:
		return SamplingPolicy{Mode: ModeForegroundOnly, Interval: 15 * time.Second, DistanceFilter: 10}
	}
}

// ModeDescription is the user-facing summary shown by the mode picker.
type ModeDescription struct {
	Title         string
	Description   string
	Permissions   string
	BatteryImpact string
}

var ModeDescriptions = map[Mode]ModeDescription{
	ModeForegroundOnly: {
		Title:         "App open only",
		Description:   "AutoTimer runs only while jobclock is in the foreground.",
		Permissions:   "Basic location permission",
		BatteryImpact: "Minimal",
	},
	ModeBackgroundAllowed: {
		Title:         "Open or minimized",
		Description:   "AutoTimer keeps running while the process is resident in the background.",
		Permissions:   "Basic location permission",
		BatteryImpact: "Low",
	},
	ModeFullBackground: {
		Title:         "Always on",
		Description:   "AutoTimer runs even after the OS relaunches a terminated process.",
		Permissions:   "Background (always) location permission",
		BatteryImpact: "Higher",
	},
}

// Permissions is the location grant reported by the platform.
type Permissions struct {
	Level     PermissionLevel `json:"level"`
	UpdatedAt time.Time       `json:"updatedAt,omitempty"`
}

func (p Permissions) Foreground() bool {
	return p.Level == PermissionForeground || p.Level == PermissionAlways
}

func (p Permissions) Background() bool {
	return p.Level == PermissionAlways
}

type NotificationSettings struct {
	Enabled       bool `json:"enabled"`
	AutoTimer     bool `json:"autoTimer"`
	WorkReminders bool `json:"workReminders"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Enabled: true, AutoTimer: true, WorkReminders: true}
}
