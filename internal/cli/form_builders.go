package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/charmbracelet/huh"
)

func requiredInput(title, placeholder string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", strings.ToLower(title))
			}
			return nil
		})
}

// coordinateInput accepts empty or a decimal degree within [lo, hi].
func coordinateInput(title, placeholder string, lo, hi float64, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(value).
		Validate(func(s string) error { return validateCoordinate(s, lo, hi) })
}

func radiusInput(value *string) *huh.Input {
	return huh.NewInput().
		Title("Geofence radius (metres)").
		Placeholder(strconv.Itoa(domain.DefaultGeofenceRadius)).
		Value(value).
		Validate(validateRadius)
}

func delayInput(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder("2").
		Value(value).
		Validate(validateDelay)
}

func validateCoordinate(s string, lo, hi float64) error {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < lo || v > hi {
		return fmt.Errorf("enter a number between %g and %g", lo, hi)
	}
	return nil
}

func validateRadius(s string) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < domain.MinGeofenceRadius {
		return fmt.Errorf("enter at least %d", domain.MinGeofenceRadius)
	}
	return nil
}

func validateDelay(s string) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > domain.MaxDelayMinutes {
		return fmt.Errorf("enter 0 to %d", domain.MaxDelayMinutes)
	}
	return nil
}

// toJob converts validated form input into a job. Coordinates must be
// given together or not at all.
func (in JobInput) toJob() (*domain.Job, error) {
	j := &domain.Job{
		Name:      strings.TrimSpace(in.Name),
		Address:   strings.TrimSpace(in.Address),
		AutoTimer: domain.DefaultAutoTimerConfig(),
	}
	switch {
	case in.Latitude != "" && in.Longitude != "":
		lat, err := strconv.ParseFloat(in.Latitude, 64)
		if err != nil {
			return nil, fmt.Errorf("latitude: %w", err)
		}
		lon, err := strconv.ParseFloat(in.Longitude, 64)
		if err != nil {
			return nil, fmt.Errorf("longitude: %w", err)
		}
		j.Location = &domain.Coordinate{Latitude: lat, Longitude: lon}
	case in.Latitude != "" || in.Longitude != "":
		return nil, fmt.Errorf("latitude and longitude must be given together")
	}
	if in.Radius != "" {
		v, err := strconv.Atoi(in.Radius)
		if err != nil {
			return nil, fmt.Errorf("radius: %w", err)
		}
		j.AutoTimer.GeofenceRadiusMeters = v
	}
	if in.DelayStart != "" {
		v, err := strconv.Atoi(in.DelayStart)
		if err != nil {
			return nil, fmt.Errorf("start delay: %w", err)
		}
		j.AutoTimer.DelayStartMinutes = v
	}
	if in.DelayStop != "" {
		v, err := strconv.Atoi(in.DelayStop)
		if err != nil {
			return nil, fmt.Errorf("stop delay: %w", err)
		}
		j.AutoTimer.DelayStopMinutes = v
	}
	return j, nil
}
