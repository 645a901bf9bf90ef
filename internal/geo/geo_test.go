package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		// Same point
		{"same point", 37.7749, -122.4194, 37.7749, -122.4194, 0, 0.001},

		// San Francisco 4th & King to Millbrae, roughly 19.6 km
		{"sf to millbrae", 37.7766, -122.3946, 37.6003, -122.3868, 19620, 200},

		// One degree of latitude is about 111.2 km
		{"one degree latitude", 0, 0, 1, 0, 111195, 100},

		// Short hop, platform-scale distance
		{"short distance", 37.0030, -121.5660, 37.0031, -121.5660, 11.1, 0.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Haversine(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if math.Abs(got-tc.expected) > tc.tolerance {
				t.Errorf("Haversine() = %.2f, expected %.2f (±%.2f)", got, tc.expected, tc.tolerance)
			}
		})
	}
}

func TestHaversineSymmetric(t *testing.T) {
	d1 := Haversine(37.7766, -122.3946, 37.6003, -122.3868)
	d2 := Haversine(37.6003, -122.3868, 37.7766, -122.3946)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %.6f vs %.6f", d1, d2)
	}
}

func TestHasArrived(t *testing.T) {
	// Stop at San Jose Diridon
	stopLat, stopLon := 37.3297, -121.9026

	tests := []struct {
		name      string
		lat, lon  float64
		threshold float64
		expected  bool
	}{
		{"at the stop", 37.3297, -121.9026, 100, true},
		{"within 100m", 37.3302, -121.9026, 100, true},
		{"outside 100m", 37.3320, -121.9026, 100, false},
		{"outside 100m but within 500m", 37.3320, -121.9026, 500, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := HasArrived(tc.lat, tc.lon, stopLat, stopLon, tc.threshold)
			if got != tc.expected {
				t.Errorf("HasArrived(%v, %v, threshold=%v) = %v, expected %v",
					tc.lat, tc.lon, tc.threshold, got, tc.expected)
			}
		})
	}
}

func TestIsValidCoordinate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		expected bool
	}{
		{"valid", 37.7749, -122.4194, true},
		{"zero zero", 0, 0, false},
		{"nan lat", math.NaN(), -122.4, false},
		{"lat out of range", 91, 0.5, false},
		{"lon out of range", 37.7, -181, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidCoordinate(tc.lat, tc.lon); got != tc.expected {
				t.Errorf("IsValidCoordinate(%v, %v) = %v, expected %v", tc.lat, tc.lon, got, tc.expected)
			}
		})
	}
}
