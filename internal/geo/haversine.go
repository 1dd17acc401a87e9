// Package geo evaluates proximity between a location fix and a job site.
package geo

import (
	"math"

	"github.com/alexanderramin/jobclock/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6_371_000.0

// Proximity is the result of evaluating a fix against a geofence.
type Proximity struct {
	DistanceMeters float64
	Inside         bool
}

// Distance returns the great-circle distance in metres between a and b.
// It returns +Inf when either coordinate is missing or not finite.
func Distance(a, b *domain.Coordinate) float64 {
	if !valid(a) || !valid(b) {
		return math.Inf(1)
	}
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Evaluate reports the distance from a fix to a site and whether it lies
// within radiusMeters. Missing coordinates are always outside.
func Evaluate(fix, site *domain.Coordinate, radiusMeters float64) Proximity {
	d := Distance(fix, site)
	if math.IsInf(d, 1) || math.IsNaN(radiusMeters) {
		return Proximity{DistanceMeters: d}
	}
	return Proximity{DistanceMeters: d, Inside: d <= radiusMeters}
}

// AccuracyAcceptable reports whether a fix with the given horizontal
// accuracy can decide a geofence of radiusMeters. Zero means unknown and
// is accepted.
func AccuracyAcceptable(accuracyMeters, radiusMeters float64) bool {
	if accuracyMeters <= 0 {
		return true
	}
	return accuracyMeters <= math.Max(200, radiusMeters*2)
}

func valid(c *domain.Coordinate) bool {
	if c == nil {
		return false
	}
	for _, v := range []float64{c.Latitude, c.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
