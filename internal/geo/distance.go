package geo

import "math"

// earthRadiusKm is the mean radius of the Earth in kilometers
const earthRadiusKm = 6371.0

// DistanceKm computes the great-circle distance in kilometers between
// two coordinates using the haversine formula. Callers must guard
// against missing coordinates; behavior on out-of-range input is
// undefined.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
