package autotimer

import "errors"

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionActive   = errors.New("a session is already active")
	ErrJobNotFound     = errors.New("job not found")
	ErrNotMonitored    = errors.New("job does not own the autotimer")
	ErrClosed          = errors.New("autotimer engine closed")
)

// Conflict names the job that already owns the AutoTimer.
type Conflict struct {
	JobID   string
	JobName string
}

// EnableResult reports the outcome of EnableAutoTimer. A non-nil Conflict
// means nothing was changed.
type EnableResult struct {
	Enabled  bool
	Conflict *Conflict
}

// SwitchResult reports what ForceEnableAutoTimer displaced.
type SwitchResult struct {
	PreviousJobID string
	Finalized     *FinalizeResult
}
