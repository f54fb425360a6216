package services_test

import (
	"math"
	"testing"
	"time"

	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(lat, lon float64) *kernel.GeoPoint {
	p := kernel.MustNewGeoPoint(lat, lon)
	return &p
}

func ids(ranked []services.RankedCandidate) []kernel.UUID {
	out := make([]kernel.UUID, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.CourierID)
	}
	return out
}

func TestCourierRanker_Rank(t *testing.T) {
	pickup := kernel.MustNewGeoPoint(0, 0)
	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	ranker := services.NewCourierRanker()

	near := services.Candidate{CourierID: kernel.NewUUID(), Location: point(0.01, 0), LastUpdated: now}
	mid := services.Candidate{CourierID: kernel.NewUUID(), Location: point(0.05, 0), LastUpdated: now}
	far := services.Candidate{CourierID: kernel.NewUUID(), Location: point(1, 0), LastUpdated: now}
	unknown := services.Candidate{CourierID: kernel.NewUUID(), LastUpdated: now}

	t.Run("should order by distance ascending", func(t *testing.T) {
		// Given
		candidates := []services.Candidate{far, near, mid}

		// When
		ranked, err := ranker.Rank(pickup, 0, candidates)

		// Then
		require.NoError(t, err)
		assert.Equal(t, []kernel.UUID{near.CourierID, mid.CourierID, far.CourierID}, ids(ranked))
		assert.InDelta(t, 1.11, ranked[0].DistanceKm, 0.01)
		assert.Equal(t, far.CourierID, candidates[0].CourierID, "input must stay untouched")
	})

	t.Run("should drop unknown and distant couriers when a radius is set", func(t *testing.T) {
		ranked, err := ranker.Rank(pickup, 10, []services.Candidate{unknown, far, mid, near})

		require.NoError(t, err)
		assert.Equal(t, []kernel.UUID{near.CourierID, mid.CourierID}, ids(ranked))
	})

	t.Run("should keep unknown locations last without a radius", func(t *testing.T) {
		ranked, err := ranker.Rank(pickup, 0, []services.Candidate{unknown, mid})

		require.NoError(t, err)
		assert.Equal(t, []kernel.UUID{mid.CourierID, unknown.CourierID}, ids(ranked))
		assert.True(t, math.IsInf(ranked[1].DistanceKm, 1))
	})

	t.Run("should break distance ties by the oldest position", func(t *testing.T) {
		fresh := services.Candidate{CourierID: kernel.NewUUID(), Location: point(0.02, 0), LastUpdated: now}
		stale := services.Candidate{CourierID: kernel.NewUUID(), Location: point(0.02, 0), LastUpdated: now.Add(-time.Minute)}

		ranked, err := ranker.Rank(pickup, 5, []services.Candidate{fresh, stale})

		require.NoError(t, err)
		assert.Equal(t, []kernel.UUID{stale.CourierID, fresh.CourierID}, ids(ranked))
	})

	t.Run("should return an empty list for no candidates", func(t *testing.T) {
		ranked, err := ranker.Rank(pickup, 5, nil)

		require.NoError(t, err)
		assert.Empty(t, ranked)
	})

	t.Run("should reject a zero pickup point", func(t *testing.T) {
		_, err := ranker.Rank(kernel.GeoPoint{}, 5, []services.Candidate{near})

		assert.ErrorIs(t, err, kernel.ErrGeoPointIsNotConstructed)
	})
}
