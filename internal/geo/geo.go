package geo

import (
	"context"
	"math"

	"github.com/google/uuid"
)

const earthRadiusKm = 6371.0

// Candidate is a driver returned by a proximity search.
type Candidate struct {
	DriverID   uuid.UUID
	DistanceKm float64
}

// Index maintains a queryable set of driver positions. A driver appears at
// most once; upserting an existing driver moves their point.
type Index interface {
	Upsert(ctx context.Context, driverID uuid.UUID, lat, lng float64) error
	Remove(ctx context.Context, driverID uuid.UUID) error
	Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]Candidate, error)
}

// DistanceKm returns the great-circle distance between two coordinates.
func DistanceKm(fromLat, fromLng, toLat, toLng float64) float64 {
	lat1 := fromLat * math.Pi / 180
	lat2 := toLat * math.Pi / 180
	dLat := (toLat - fromLat) * math.Pi / 180
	dLng := (toLng - fromLng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
