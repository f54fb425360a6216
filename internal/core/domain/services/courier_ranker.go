package services

import (
	"math"
	"slices"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
)

// Candidate is a courier that already passed the availability checks.
type Candidate struct {
	CourierID kernel.UUID
	// Location is nil when the courier has not reported a position since connecting.
	Location    *kernel.GeoPoint
	LastUpdated time.Time
}

// RankedCandidate is a Candidate with its distance to the pickup point.
// DistanceKm is +Inf for candidates without a location.
type RankedCandidate struct {
	Candidate
	DistanceKm float64
}

// CourierRanker decides the order in which couriers see an offer.
//
// Ranking rules:
//   - with maxDistanceKm > 0, only candidates with a known location within range are kept
//   - with maxDistanceKm <= 0, every candidate is kept and unknown locations sort last
//   - nearer first; equal distances go to the courier whose position is older,
//     i.e. who has been waiting longest
type CourierRanker struct{}

func NewCourierRanker() CourierRanker {
	return CourierRanker{}
}

// Rank returns the kept candidates, nearest first. It never mutates its input.
func (r CourierRanker) Rank(origin kernel.GeoPoint, maxDistanceKm float64, candidates []Candidate) ([]RankedCandidate, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		distance := math.Inf(1)
		if c.Location != nil {
			d, err := origin.DistanceKm(*c.Location)
			if err != nil {
				return nil, err
			}
			distance = d
		}

		if maxDistanceKm > 0 && distance > maxDistanceKm {
			continue
		}

		ranked = append(ranked, RankedCandidate{Candidate: c, DistanceKm: distance})
	}

	slices.SortStableFunc(ranked, func(a, b RankedCandidate) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		}
		return a.LastUpdated.Compare(b.LastUpdated)
	})

	return ranked, nil
}
