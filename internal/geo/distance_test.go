package geo

import (
	"math"
	"testing"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	points := []struct {
		name     string
		lat, lon float64
	}{
		{"equator", 0, 0},
		{"london", 51.5074, -0.1278},
		{"southern hemisphere", -33.8688, 151.2093},
	}

	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			if d := DistanceKm(p.lat, p.lon, p.lat, p.lon); d != 0 {
				t.Errorf("DistanceKm(A, A) = %v, want 0", d)
			}
		})
	}
}

func TestDistanceKmKnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		{
			name: "london to paris",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 48.8566, lon2: 2.3522,
			expected:  343.5,
			tolerance: 2.0,
		},
		{
			name: "one degree of latitude",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			expected:  111.2,
			tolerance: 0.5,
		},
		{
			name: "toronto to vancouver",
			lat1: 43.6532, lon1: -79.3832,
			lat2: 49.2827, lon2: -123.1207,
			expected:  3358,
			tolerance: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("DistanceKm() = %v, want %v ± %v", got, tt.expected, tt.tolerance)
			}
		})
	}
}

func TestDistanceKmSymmetry(t *testing.T) {
	d1 := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	d2 := DistanceKm(48.8566, 2.3522, 51.5074, -0.1278)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}

func TestDistanceKmMidpointAdditivity(t *testing.T) {
	// C sits on the great-circle path between A and B (same meridian),
	// so d(A,B) should equal d(A,C) + d(C,B) within floating tolerance.
	aLat, aLon := 10.0, 20.0
	bLat, bLon := 30.0, 20.0
	cLat, cLon := 20.0, 20.0

	ab := DistanceKm(aLat, aLon, bLat, bLon)
	ac := DistanceKm(aLat, aLon, cLat, cLon)
	cb := DistanceKm(cLat, cLon, bLat, bLon)

	if math.Abs(ab-(ac+cb)) > 1e-6 {
		t.Errorf("midpoint additivity violated: d(A,B)=%v, d(A,C)+d(C,B)=%v", ab, ac+cb)
	}
}
