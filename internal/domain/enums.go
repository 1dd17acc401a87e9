package domain

type TimerState string

const (
	StateInactive TimerState = "inactive"
	StateEntering TimerState = "entering"
	StateActive   TimerState = "active"
	StateLeaving  TimerState = "leaving"
	StateManual   TimerState = "manual"
)

// ValidTimerStates is the canonical set of engine states accepted when
// restoring a persisted snapshot.
var ValidTimerStates = map[TimerState]bool{
	StateInactive: true,
	StateEntering: true,
	StateActive:   true,
	StateLeaving:  true,
	StateManual:   true,
}

type Mode string

const (
	ModeForegroundOnly    Mode = "foreground-only"
	ModeBackgroundAllowed Mode = "background-allowed"
	ModeFullBackground    Mode = "full-background"
)

// ValidModes lists the modes in increasing order of background reach.
var ValidModes = []Mode{ModeForegroundOnly, ModeBackgroundAllowed, ModeFullBackground}

// ParseMode accepts the canonical mode names.
func ParseMode(s string) (Mode, bool) {
	for _, m := range ValidModes {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// SampleOrigin describes how a location fix reached the process.
type SampleOrigin string

const (
	OriginForeground SampleOrigin = "foreground"
	OriginBackground SampleOrigin = "background"
	OriginRelaunch   SampleOrigin = "relaunch"
)

// ValidOrigins is the canonical set of accepted origin strings.
var ValidOrigins = map[string]bool{
	"foreground": true, "background": true, "relaunch": true,
}

type SessionSource string

const (
	SourceAuto   SessionSource = "auto"
	SourceManual SessionSource = "manual"
)

type WorkDayType string

const (
	WorkDayWork     WorkDayType = "work"
	WorkDayFree     WorkDayType = "free"
	WorkDayVacation WorkDayType = "vacation"
	WorkDaySick     WorkDayType = "sick"
)

type NotificationKind string

const (
	NotifyTimerStarted   NotificationKind = "timer_started"
	NotifyTimerStopped   NotificationKind = "timer_stopped"
	NotifyTimerWillStart NotificationKind = "timer_will_start"
	NotifyTimerWillStop  NotificationKind = "timer_will_stop"
)

type PermissionLevel string

const (
	PermissionNone       PermissionLevel = "none"
	PermissionForeground PermissionLevel = "foreground"
	PermissionAlways     PermissionLevel = "always"
)

// ParsePermissionLevel accepts the canonical permission level names.
func ParsePermissionLevel(s string) (PermissionLevel, bool) {
	switch PermissionLevel(s) {
	case PermissionNone, PermissionForeground, PermissionAlways:
		return PermissionLevel(s), true
	}
	return "", false
}
