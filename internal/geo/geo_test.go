package geo

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestDistanceKmLagosReference(t *testing.T) {
	// Victoria Island to Ikeja, roughly 12.3 km apart.
	got := DistanceKm(6.4281, 3.4219, 6.5244, 3.3792)
	if got < 11.5 || got > 12.5 {
		t.Fatalf("expected ~12.3 km, got %f", got)
	}
}

func TestDistanceKmZeroAndSymmetry(t *testing.T) {
	if d := DistanceKm(6.4281, 3.4219, 6.4281, 3.4219); d != 0 {
		t.Fatalf("expected zero distance, got %f", d)
	}

	forward := DistanceKm(6.4281, 3.4219, 6.5244, 3.3792)
	backward := DistanceKm(6.5244, 3.3792, 6.4281, 3.4219)
	if math.Abs(forward-backward) > 1e-9 {
		t.Fatalf("expected symmetric distances, got %f and %f", forward, backward)
	}
}

func TestMemoryIndexNearbyOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()

	near := uuid.New()
	far := uuid.New()
	outside := uuid.New()

	if err := index.Upsert(ctx, far, 6.5244, 3.3792); err != nil {
		t.Fatalf("upsert far: %v", err)
	}
	if err := index.Upsert(ctx, near, 6.4300, 3.4220); err != nil {
		t.Fatalf("upsert near: %v", err)
	}
	if err := index.Upsert(ctx, outside, 9.0765, 7.3986); err != nil {
		t.Fatalf("upsert outside: %v", err)
	}

	candidates, err := index.Nearby(ctx, 6.4281, 3.4219, 15, 10)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].DriverID != near || candidates[1].DriverID != far {
		t.Fatalf("expected nearest first, got %v", candidates)
	}
	if candidates[0].DistanceKm >= candidates[1].DistanceKm {
		t.Fatalf("expected ascending distances, got %v", candidates)
	}
}

func TestMemoryIndexNearbyRespectsLimit(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()

	for i := 0; i < 5; i++ {
		if err := index.Upsert(ctx, uuid.New(), 6.4281+float64(i)*0.001, 3.4219); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	candidates, err := index.Nearby(ctx, 6.4281, 3.4219, 50, 2)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(candidates))
	}
}

func TestMemoryIndexEmptyAndMoves(t *testing.T) {
	ctx := context.Background()
	index := NewMemoryIndex()

	candidates, err := index.Nearby(ctx, 6.4281, 3.4219, 10, 5)
	if err != nil {
		t.Fatalf("nearby on empty index: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}

	driverID := uuid.New()
	if err := index.Upsert(ctx, driverID, 9.0765, 7.3986); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := index.Upsert(ctx, driverID, 6.4285, 3.4220); err != nil {
		t.Fatalf("move: %v", err)
	}

	candidates, err = index.Nearby(ctx, 6.4281, 3.4219, 5, 5)
	if err != nil {
		t.Fatalf("nearby after move: %v", err)
	}
	if len(candidates) != 1 || candidates[0].DriverID != driverID {
		t.Fatalf("expected moved driver in range, got %v", candidates)
	}

	if err := index.Remove(ctx, driverID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := index.Remove(ctx, driverID); err != nil {
		t.Fatalf("remove of absent driver should be a no-op, got %v", err)
	}
}
