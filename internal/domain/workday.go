package domain

import (
	"math"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	MinSessionHours = 0.01
	OvertimeHours   = 8.0
	NotesSeparator  = "\n---\n"
)

type WorkDay struct {
	ID          string
	Date        string
	JobID       string
	Hours       float64
	Notes       string
	Overtime    bool
	ActualStart string
	ActualEnd   string
	Type        WorkDayType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SessionHours converts elapsed seconds into billable hours rounded to two
// decimals, never below MinSessionHours.
func SessionHours(elapsedSeconds int) float64 {
	h := math.Round(float64(elapsedSeconds)/3600*100) / 100
	return math.Max(MinSessionHours, h)
}

// NewWorkDayFromSession builds the record for a session that ends at end.
func NewWorkDayFromSession(s *ActiveSession, end time.Time) *WorkDay {
	hours := SessionHours(s.Elapsed(end))
	start := end.Add(-time.Duration(s.Elapsed(end)) * time.Second)
	return &WorkDay{
		Date:        end.Format(DateLayout),
		JobID:       s.JobID,
		Hours:       hours,
		Notes:       s.Notes,
		Overtime:    hours > OvertimeHours,
		ActualStart: start.Format(ClockLayout),
		ActualEnd:   end.Format(ClockLayout),
		Type:        WorkDayWork,
	}
}

// MergeInto folds w into existing: hours are summed, notes concatenated
// and the clock range widened. existing keeps its identity.
func (w *WorkDay) MergeInto(existing *WorkDay) *WorkDay {
	merged := *existing
	merged.Hours = math.Round((existing.Hours+w.Hours)*100) / 100
	merged.Notes = joinNotes(existing.Notes, w.Notes)
	merged.Overtime = merged.Hours > OvertimeHours
	merged.ActualStart = earlierClock(existing.ActualStart, w.ActualStart)
	merged.ActualEnd = laterClock(existing.ActualEnd, w.ActualEnd)
	return &merged
}

func joinNotes(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + NotesSeparator + b
	}
}

// "15:04" strings order lexically; empty means unknown.
func earlierClock(a, b string) string {
	if a == "" || (b != "" && b < a) {
		return b
	}
	return a
}

func laterClock(a, b string) string {
	if a == "" || (b != "" && b > a) {
		return b
	}
	return a
}
