package repository

import (
	"database/sql"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
)

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// coordinateArgs splits an optional coordinate into nullable columns.
func coordinateArgs(c *domain.Coordinate) (any, any) {
	if c == nil {
		return nil, nil
	}
	return c.Latitude, c.Longitude
}

func coordinateFrom(lat, lon sql.NullFloat64) *domain.Coordinate {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &domain.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
}

// nullableString stores "" as SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
