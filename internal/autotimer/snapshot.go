package autotimer

import (
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
)

type actionKind string

const (
	actionStart actionKind = "start"
	actionStop  actionKind = "stop"
)

// Snapshot is the persisted engine state restored by Start.
type Snapshot struct {
	State         domain.TimerState `json:"state"`
	JobID         string            `json:"jobId,omitempty"`
	PendingAction string            `json:"pendingAction,omitempty"`
	Deadline      time.Time         `json:"deadline,omitempty"`
	TotalDelaySec int               `json:"totalDelay,omitempty"`
	SavedAt       time.Time         `json:"savedAt"`
}

// pending is an armed hysteresis timer.
type pending struct {
	kind     actionKind
	deadline time.Time
	total    time.Duration
	gen      uint64
	timer    Timer
}

func (p *pending) remaining(now time.Time) time.Duration {
	d := p.deadline.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
