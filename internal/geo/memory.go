package geo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type position struct {
	lat float64
	lng float64
}

// MemoryIndex is an in-process Index for tests and single-node development.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[uuid.UUID]position
}

// NewMemoryIndex builds an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[uuid.UUID]position)}
}

// Upsert inserts or moves a driver point.
func (i *MemoryIndex) Upsert(_ context.Context, driverID uuid.UUID, lat, lng float64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.points[driverID] = position{lat: lat, lng: lng}
	return nil
}

// Remove drops a driver from the index. Removing an absent driver is a no-op.
func (i *MemoryIndex) Remove(_ context.Context, driverID uuid.UUID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.points, driverID)
	return nil
}

// Nearby scans every point and returns drivers within radiusKm ordered by
// distance ascending, at most limit results.
func (i *MemoryIndex) Nearby(_ context.Context, lat, lng, radiusKm float64, limit int) ([]Candidate, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	candidates := make([]Candidate, 0, len(i.points))
	for driverID, pos := range i.points {
		dist := DistanceKm(lat, lng, pos.lat, pos.lng)
		if dist > radiusKm {
			continue
		}
		candidates = append(candidates, Candidate{DriverID: driverID, DistanceKm: dist})
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].DistanceKm < candidates[b].DistanceKm
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
