package city

import (
	"math"

	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const earthRadiusKm = 6371.0

// DistanceKm is the haversine great-circle distance between two points.
func DistanceKm(a, b types.Coordinates) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// TravelEstimateMinutes looks up the area-to-area matrix for the areas nearest to a and b.
// ok is false when the city has no matrix or the pair is missing.
func TravelEstimateMinutes(a, b types.Coordinates, city *types.CityConfig) (int, bool) {
	if !city.HasTravelEstimates() {
		return 0, false
	}
	from, to := NearestArea(a, city), NearestArea(b, city)
	if from == nil || to == nil {
		return 0, false
	}
	row, ok := city.TravelEstimates[from.Name]
	if !ok {
		return 0, false
	}
	m, ok := row[to.Name]
	return m, ok
}
