package domain

import "fmt"

// AutoTimerStatus is the transient snapshot broadcast to observers.
type AutoTimerStatus struct {
	State             TimerState `json:"state"`
	JobID             string     `json:"jobId,omitempty"`
	JobName           string     `json:"jobName,omitempty"`
	RemainingSeconds  int        `json:"remainingTime"`
	TotalDelaySeconds int        `json:"totalDelayTime"`
	Paused            bool       `json:"paused"`
	Message           string     `json:"message"`
}

// HumanMessage renders the one-line description shown next to the status.
func HumanMessage(st AutoTimerStatus) string {
	switch st.State {
	case StateEntering:
		return fmt.Sprintf("Arrived at %s, starting in %s", orJob(st.JobName), FormatCountdown(st.RemainingSeconds))
	case StateActive:
		return fmt.Sprintf("Tracking time at %s", orJob(st.JobName))
	case StateLeaving:
		return fmt.Sprintf("Left %s, stopping in %s", orJob(st.JobName), FormatCountdown(st.RemainingSeconds))
	case StateManual:
		if st.Paused {
			return fmt.Sprintf("Paused at %s", orJob(st.JobName))
		}
		return "Manual control, automatic start and stop suspended"
	default:
		if st.JobName != "" {
			return fmt.Sprintf("Waiting to arrive at %s", st.JobName)
		}
		return "AutoTimer inactive"
	}
}

// FormatCountdown renders seconds as m:ss.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func orJob(name string) string {
	if name == "" {
		return "job"
	}
	return name
}
