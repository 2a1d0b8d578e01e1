package drivers

import (
	"bytes"
	"sort"

	"github.com/feastline/dispatch-backend/pkg/db/models"
	"github.com/feastline/dispatch-backend/pkg/enums"
)

// Candidate pairs a driver row with their distance from the pickup point.
type Candidate struct {
	Driver     models.Driver
	DistanceKm float64
}

// Rank orders dispatch candidates: best rating first, then lightest load,
// then closest, then id so the order is a stable total order. Drivers not
// currently available are dropped.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Driver.Status != enums.DriverStatusAvailable {
			continue
		}
		ranked = append(ranked, c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Driver.Rating != b.Driver.Rating {
			return a.Driver.Rating > b.Driver.Rating
		}
		if a.Driver.ActiveAssignments != b.Driver.ActiveAssignments {
			return a.Driver.ActiveAssignments < b.Driver.ActiveAssignments
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return bytes.Compare(a.Driver.ID[:], b.Driver.ID[:]) < 0
	})
	return ranked
}
