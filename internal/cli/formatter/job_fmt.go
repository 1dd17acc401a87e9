package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jobclock/internal/domain"
)

// FormatJobList renders jobs as a table. The radius column shows the value
// in effect for mode.
func FormatJobList(jobs []*domain.Job, mode domain.Mode) string {
	headers := []string{"ID", "NAME", "LOCATION", "RADIUS", "DELAYS", "AUTOTIMER"}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			TruncID(j.ID),
			Bold(j.Name),
			location(j),
			fmt.Sprintf("%d m", j.EffectiveRadius(mode)),
			fmt.Sprintf("%d/%d min", j.AutoTimer.DelayStartMinutes, j.AutoTimer.DelayStopMinutes),
			autoTimerPill(j),
		})
	}
	return RenderBox("Jobs", RenderTable(headers, rows))
}

// FormatJob renders one job's details.
func FormatJob(j *domain.Job, mode domain.Mode) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-14s %s\n", Dim(label), value)
	}
	line("ID", j.ID)
	line("Name", Bold(j.Name))
	if j.Address != "" {
		line("Address", j.Address)
	}
	line("Location", location(j))
	radius := fmt.Sprintf("%d m", j.AutoTimer.GeofenceRadiusMeters)
	if eff := j.EffectiveRadius(mode); eff != j.AutoTimer.GeofenceRadiusMeters {
		radius += Dim(fmt.Sprintf(" (%d m in %s)", eff, mode))
	}
	line("Radius", radius)
	line("Start delay", fmt.Sprintf("%d min", j.AutoTimer.DelayStartMinutes))
	line("Stop delay", fmt.Sprintf("%d min", j.AutoTimer.DelayStopMinutes))
	line("Notifications", OnOff(j.AutoTimer.NotificationsEnabled))
	line("AutoTimer", autoTimerPill(j))
	return RenderBox("Job", b.String())
}

func location(j *domain.Job) string {
	if !j.HasLocation() {
		return Dim("none")
	}
	return fmt.Sprintf("%.5f, %.5f", j.Location.Latitude, j.Location.Longitude)
}

func autoTimerPill(j *domain.Job) string {
	if j.AutoTimer.Enabled {
		return StyleGreen.Render("● enabled")
	}
	return StyleDim.Render("○ off")
}
