package geo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type geoStore interface {
	GeoAdd(ctx context.Context, key, member string, lng, lat float64) error
	GeoSearch(ctx context.Context, key string, lng, lat, radiusKm float64, count int) ([]goredis.GeoLocation, error)
	GeoRemove(ctx context.Context, key, member string) error
}

// RedisIndex stores driver positions in a single Redis GEO sorted set.
type RedisIndex struct {
	store geoStore
	key   string
}

// NewRedisIndex builds the production index over the provided store and key.
func NewRedisIndex(store geoStore, key string) (*RedisIndex, error) {
	if store == nil {
		return nil, fmt.Errorf("geo store required")
	}
	if key == "" {
		return nil, fmt.Errorf("geo key required")
	}
	return &RedisIndex{store: store, key: key}, nil
}

// Upsert inserts or moves a driver point.
func (i *RedisIndex) Upsert(ctx context.Context, driverID uuid.UUID, lat, lng float64) error {
	return i.store.GeoAdd(ctx, i.key, driverID.String(), lng, lat)
}

// Remove drops a driver from the index. Removing an absent driver is a no-op.
func (i *RedisIndex) Remove(ctx context.Context, driverID uuid.UUID) error {
	return i.store.GeoRemove(ctx, i.key, driverID.String())
}

// Nearby returns drivers within radiusKm ordered by distance ascending.
func (i *RedisIndex) Nearby(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]Candidate, error) {
	locations, err := i.store.GeoSearch(ctx, i.key, lng, lat, radiusKm, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(locations))
	for _, loc := range locations {
		driverID, err := uuid.Parse(loc.Name)
		if err != nil {
			// Members written outside Upsert are ignored.
			continue
		}
		candidates = append(candidates, Candidate{
			DriverID:   driverID,
			DistanceKm: loc.Dist,
		})
	}
	return candidates, nil
}
