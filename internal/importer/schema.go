package importer

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImportSchema is the top-level JSON structure for a job import.
type ImportSchema struct {
	Defaults *DefaultsImport `json:"defaults,omitempty"`
	Jobs     []JobImport     `json:"jobs"`
	WorkDays []WorkDayImport `json:"work_days,omitempty"`
}

// DefaultsImport holds AutoTimer settings that cascade to every job
// leaving them unset.
type DefaultsImport struct {
	AutoTimer *AutoTimerImport `json:"autotimer,omitempty"`
}

type AutoTimerImport struct {
	RadiusMeters  *int  `json:"radius_m,omitempty"`
	DelayStartMin *int  `json:"delay_start_min,omitempty"`
	DelayStopMin  *int  `json:"delay_stop_min,omitempty"`
	Notifications *bool `json:"notifications,omitempty"`
}

// JobImport defines a job in the import file. Ref links work days to it.
type JobImport struct {
	Ref       string           `json:"ref"`
	Name      string           `json:"name"`
	Address   string           `json:"address,omitempty"`
	Latitude  *float64         `json:"lat,omitempty"`
	Longitude *float64         `json:"lon,omitempty"`
	AutoTimer *AutoTimerImport `json:"autotimer,omitempty"`
}

// WorkDayImport is a day of past work for one of the imported jobs.
type WorkDayImport struct {
	JobRef string  `json:"job_ref"`
	Date   string  `json:"date"`
	Hours  float64 `json:"hours"`
	Start  string  `json:"start,omitempty"`
	End    string  `json:"end,omitempty"`
	Notes  string  `json:"notes,omitempty"`
	Type   string  `json:"type,omitempty"`
}

// LoadImportSchema reads and parses a job import JSON file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var schema ImportSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
