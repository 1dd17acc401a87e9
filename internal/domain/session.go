package domain

import (
	"errors"
	"time"
)

const AutoStartedNote = "Auto-started"

var (
	ErrSessionPaused    = errors.New("session is already paused")
	ErrSessionNotPaused = errors.New("session is not paused")
)

// ActiveSession is the single in-progress work interval. While paused the
// elapsed value is frozen in PausedElapsedSeconds and StartTime is left
// untouched; Resume folds it back into StartTime.
type ActiveSession struct {
	JobID                string        `json:"jobId"`
	StartTime            time.Time     `json:"startTime"`
	Notes                string        `json:"notes"`
	IsPaused             bool          `json:"isPaused"`
	PausedElapsedSeconds int           `json:"pausedElapsedTime"`
	Source               SessionSource `json:"source,omitempty"`
}

// Elapsed returns the whole seconds worked as of now.
func (s *ActiveSession) Elapsed(now time.Time) int {
	if s.IsPaused {
		return s.PausedElapsedSeconds
	}
	d := now.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// Pause freezes the elapsed value captured at now.
func (s *ActiveSession) Pause(now time.Time) error {
	if s.IsPaused {
		return ErrSessionPaused
	}
	s.PausedElapsedSeconds = s.Elapsed(now)
	s.IsPaused = true
	return nil
}

// Resume shifts StartTime so that Elapsed continues from the frozen value.
func (s *ActiveSession) Resume(now time.Time) error {
	if !s.IsPaused {
		return ErrSessionNotPaused
	}
	s.StartTime = now.Add(-time.Duration(s.PausedElapsedSeconds) * time.Second)
	s.PausedElapsedSeconds = 0
	s.IsPaused = false
	return nil
}

// IsAuto reports whether the engine started the session. Records written
// before Source existed are recognised by their note.
func (s *ActiveSession) IsAuto() bool {
	if s.Source != "" {
		return s.Source == SourceAuto
	}
	return s.Notes == AutoStartedNote
}
