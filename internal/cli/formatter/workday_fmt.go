package formatter

import (
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
)

// FormatWorkDays renders recorded days, newest first. names maps job IDs
// to display names.
func FormatWorkDays(days []*domain.WorkDay, names map[string]string, now time.Time) string {
	headers := []string{"DATE", "JOB", "HOURS", "RANGE", "TYPE", "NOTES"}
	rows := make([][]string, 0, len(days))
	var total float64
	for _, d := range days {
		total += d.Hours
		hours := FormatHours(d.Hours)
		if d.Overtime {
			hours = StyleYellow.Render(hours + " +")
		}
		span := Dim("--")
		if d.ActualStart != "" {
			span = d.ActualStart + "–" + d.ActualEnd
		}
		job := names[d.JobID]
		if job == "" {
			job = Dim("--")
		}
		rows = append(rows, []string{
			HumanDate(d.Date, now),
			job,
			hours,
			span,
			string(d.Type),
			Dim(Truncate(firstLine(d.Notes), 40)),
		})
	}
	body := RenderTable(headers, rows) + "\n" + Dim("Total: ") + Bold(FormatHours(total)) + "\n"
	return RenderBox("Work days", body)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
