package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
)

var validWorkDayTypes = map[string]bool{
	string(domain.WorkDayWork):     true,
	string(domain.WorkDayFree):     true,
	string(domain.WorkDayVacation): true,
	string(domain.WorkDaySick):     true,
}

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	if schema.Defaults != nil && schema.Defaults.AutoTimer != nil {
		errs = append(errs, validateAutoTimer("defaults.autotimer", schema.Defaults.AutoTimer)...)
	}

	jobRefs := make(map[string]bool)
	errs = append(errs, validateJobs(schema.Jobs, jobRefs)...)
	errs = append(errs, validateWorkDays(schema.WorkDays, jobRefs)...)

	return errs
}

func validateAutoTimer(prefix string, a *AutoTimerImport) []error {
	var errs []error
	if a.RadiusMeters != nil && *a.RadiusMeters <= 0 {
		errs = append(errs, fmt.Errorf("%s.radius_m must be positive", prefix))
	}
	if a.DelayStartMin != nil && (*a.DelayStartMin < 0 || *a.DelayStartMin > domain.MaxDelayMinutes) {
		errs = append(errs, fmt.Errorf("%s.delay_start_min must be between 0 and %d", prefix, domain.MaxDelayMinutes))
	}
	if a.DelayStopMin != nil && (*a.DelayStopMin < 0 || *a.DelayStopMin > domain.MaxDelayMinutes) {
		errs = append(errs, fmt.Errorf("%s.delay_stop_min must be between 0 and %d", prefix, domain.MaxDelayMinutes))
	}
	return errs
}

func validateJobs(jobs []JobImport, jobRefs map[string]bool) []error {
	var errs []error
	if len(jobs) == 0 {
		errs = append(errs, fmt.Errorf("jobs: at least one job is required"))
	}

	names := make(map[string]bool)
	for i, j := range jobs {
		prefix := fmt.Sprintf("jobs[%d]", i)
		if j.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if jobRefs[j.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref %q is duplicated", prefix, j.Ref))
		} else {
			jobRefs[j.Ref] = true
		}

		name := strings.TrimSpace(j.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		} else if names[strings.ToLower(name)] {
			errs = append(errs, fmt.Errorf("%s.name %q is duplicated", prefix, name))
		} else {
			names[strings.ToLower(name)] = true
		}

		switch {
		case (j.Latitude == nil) != (j.Longitude == nil):
			errs = append(errs, fmt.Errorf("%s: lat and lon must be given together", prefix))
		case j.Latitude != nil:
			if *j.Latitude < -90 || *j.Latitude > 90 || *j.Longitude < -180 || *j.Longitude > 180 {
				errs = append(errs, fmt.Errorf("%s: coordinate out of range", prefix))
			}
		}
		if j.AutoTimer != nil {
			errs = append(errs, validateAutoTimer(prefix+".autotimer", j.AutoTimer)...)
		}
	}
	return errs
}

func validateWorkDays(days []WorkDayImport, jobRefs map[string]bool) []error {
	var errs []error
	for i, w := range days {
		prefix := fmt.Sprintf("work_days[%d]", i)
		if !jobRefs[w.JobRef] {
			errs = append(errs, fmt.Errorf("%s.job_ref %q does not match any job", prefix, w.JobRef))
		}
		if _, err := time.Parse(domain.DateLayout, w.Date); err != nil {
			errs = append(errs, fmt.Errorf("%s.date: invalid date format %q (expected YYYY-MM-DD)", prefix, w.Date))
		}
		if w.Hours < 0 || w.Hours > 24 {
			errs = append(errs, fmt.Errorf("%s.hours must be between 0 and 24", prefix))
		}
		for field, v := range map[string]string{"start": w.Start, "end": w.End} {
			if v == "" {
				continue
			}
			if _, err := time.Parse(domain.ClockLayout, v); err != nil {
				errs = append(errs, fmt.Errorf("%s.%s: invalid time %q (expected HH:MM)", prefix, field, v))
			}
		}
		if w.Start != "" && w.End != "" && w.End < w.Start {
			errs = append(errs, fmt.Errorf("%s: end %s is before start %s", prefix, w.End, w.Start))
		}
		if w.Type != "" && !validWorkDayTypes[w.Type] {
			errs = append(errs, fmt.Errorf("%s.type: invalid value %q", prefix, w.Type))
		}
	}
	return errs
}
