package geo

import "math"

const earthRadiusMeters = 6371000

// Haversine calculates the great-circle distance between two points in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaPhi := (lat2 - lat1) * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// HasArrived reports whether a train is within thresholdMeters of a stop.
// Informational only: the arrival resolver keys on minimum distance across
// all pings for a group, because polling is too sparse to catch the exact
// threshold crossing.
func HasArrived(trainLat, trainLon, stopLat, stopLon, thresholdMeters float64) bool {
	return Haversine(trainLat, trainLon, stopLat, stopLon) <= thresholdMeters
}

// IsValidCoordinate checks that a coordinate is a plausible lat/lon pair.
// Catches (0,0) and NaN values from corrupt feed data.
func IsValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	if lat == 0 && lon == 0 {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
