package geo

import (
	"math"
	"testing"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// metresNorth returns a coordinate d metres due north of the origin.
func metresNorth(d float64) *domain.Coordinate {
	return &domain.Coordinate{Latitude: d / EarthRadiusMeters * 180 / math.Pi}
}

func TestDistance_KnownCities(t *testing.T) {
	madrid := &domain.Coordinate{Latitude: 40.4168, Longitude: -3.7038}
	barcelona := &domain.Coordinate{Latitude: 41.3874, Longitude: 2.1686}

	d := Distance(madrid, barcelona)
	assert.InDelta(t, 505_000, d, 2_000)
}

func TestDistance_SamePointIsZero(t *testing.T) {
	p := &domain.Coordinate{Latitude: 12.5, Longitude: -71.25}
	assert.InDelta(t, 0, Distance(p, p), 1e-9)
}

func TestEvaluate_InsideAndOutside(t *testing.T) {
	site := &domain.Coordinate{}

	in := Evaluate(metresNorth(40), site, 50)
	assert.True(t, in.Inside)
	assert.InDelta(t, 40, in.DistanceMeters, 0.01)

	out := Evaluate(metresNorth(100), site, 50)
	assert.False(t, out.Inside)
	assert.InDelta(t, 100, out.DistanceMeters, 0.01)
}

func TestEvaluate_BoundaryIsInside(t *testing.T) {
	site := &domain.Coordinate{}
	fix := metresNorth(50)
	d := Distance(fix, site)
	assert.True(t, Evaluate(fix, site, d).Inside)
}

func TestEvaluate_MissingCoordinatesAreOutside(t *testing.T) {
	site := &domain.Coordinate{}
	assert.False(t, Evaluate(nil, site, 1e9).Inside)
	assert.False(t, Evaluate(site, nil, 1e9).Inside)
	assert.False(t, Evaluate(&domain.Coordinate{Latitude: math.NaN()}, site, 1e9).Inside)
	assert.True(t, math.IsInf(Evaluate(nil, site, 50).DistanceMeters, 1))
}

func TestAccuracyAcceptable(t *testing.T) {
	assert.True(t, AccuracyAcceptable(0, 50))
	assert.True(t, AccuracyAcceptable(200, 50))
	assert.False(t, AccuracyAcceptable(201, 50))
	assert.True(t, AccuracyAcceptable(300, 150))
}

func TestDistance_SymmetricAndNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := &domain.Coordinate{
			Latitude:  rapid.Float64Range(-90, 90).Draw(t, "lat_a"),
			Longitude: rapid.Float64Range(-180, 180).Draw(t, "lon_a"),
		}
		b := &domain.Coordinate{
			Latitude:  rapid.Float64Range(-90, 90).Draw(t, "lat_b"),
			Longitude: rapid.Float64Range(-180, 180).Draw(t, "lon_b"),
		}
		ab, ba := Distance(a, b), Distance(b, a)
		if ab < 0 || math.Abs(ab-ba) > 1e-6 {
			t.Fatalf("distance not symmetric: %f vs %f", ab, ba)
		}
		if ab > math.Pi*EarthRadiusMeters+1 {
			t.Fatalf("distance %f exceeds half circumference", ab)
		}
	})
}
