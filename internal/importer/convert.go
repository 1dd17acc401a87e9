package importer

import (
	"math"
	"strings"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/google/uuid"
)

// Imported is the converted content of an import file.
type Imported struct {
	Jobs     []*domain.Job
	WorkDays []*domain.WorkDay
}

// Convert transforms a validated ImportSchema into domain objects ready for
// persistence. Call ValidateImportSchema first; Convert assumes the schema is
// valid. Imported jobs never own the AutoTimer.
func Convert(schema *ImportSchema) *Imported {
	now := time.Now().UTC()
	defaults := domain.DefaultAutoTimerConfig()

	var fileDefaults AutoTimerImport
	if schema.Defaults != nil && schema.Defaults.AutoTimer != nil {
		fileDefaults = *schema.Defaults.AutoTimer
	}

	refMap := make(map[string]string) // ref -> UUID
	out := &Imported{}

	for _, j := range schema.Jobs {
		var own AutoTimerImport
		if j.AutoTimer != nil {
			own = *j.AutoTimer
		}
		job := &domain.Job{
			ID:      uuid.New().String(),
			Name:    strings.TrimSpace(j.Name),
			Address: strings.TrimSpace(j.Address),
			AutoTimer: domain.AutoTimerConfig{
				GeofenceRadiusMeters: domain.IntFromPtrWithDefault(defaults.GeofenceRadiusMeters, own.RadiusMeters, fileDefaults.RadiusMeters),
				DelayStartMinutes:    domain.IntFromPtrWithDefault(defaults.DelayStartMinutes, own.DelayStartMin, fileDefaults.DelayStartMin),
				DelayStopMinutes:     domain.IntFromPtrWithDefault(defaults.DelayStopMinutes, own.DelayStopMin, fileDefaults.DelayStopMin),
				NotificationsEnabled: domain.BoolFromPtrWithDefault(defaults.NotificationsEnabled, own.Notifications, fileDefaults.Notifications),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if j.Latitude != nil && j.Longitude != nil {
			job.Location = &domain.Coordinate{Latitude: *j.Latitude, Longitude: *j.Longitude}
		}
		refMap[j.Ref] = job.ID
		out.Jobs = append(out.Jobs, job)
	}

	for _, w := range schema.WorkDays {
		hours := math.Round(w.Hours*100) / 100
		out.WorkDays = append(out.WorkDays, &domain.WorkDay{
			ID:          uuid.New().String(),
			Date:        w.Date,
			JobID:       refMap[w.JobRef],
			Hours:       hours,
			Notes:       w.Notes,
			Overtime:    hours > domain.OvertimeHours,
			ActualStart: w.Start,
			ActualEnd:   w.End,
			Type:        domain.WorkDayType(domain.CoalesceStr(w.Type, string(domain.WorkDayWork))),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return out
}
