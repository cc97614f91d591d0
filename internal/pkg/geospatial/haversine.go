package geospatial

import (
	"math"
	"sort"

	"github.com/samirrijal/mapgood/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(a, b domain.Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c * 1000 // meters
}

// SortByDistance orders cities nearest-first from origin. Ties keep their
// geocoder ranking.
func SortByDistance(cities []domain.City, origin domain.Coordinate) {
	sort.SliceStable(cities, func(i, j int) bool {
		return Haversine(origin, cities[i].Coordinate) < Haversine(origin, cities[j].Coordinate)
	})
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
