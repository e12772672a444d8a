package selector_test

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/selector"
)

func TestBaselinePicksLowestLatencyAmongFreeSlots(t *testing.T) {
	full := uuid.New()
	near := uuid.New()
	far := uuid.New()
	candidates := []selector.Candidate{
		{ID: full, AvailableSlots: 0},
		{ID: near, AvailableSlots: 1},
		{ID: far, AvailableSlots: 1},
	}
	latencies := map[uuid.UUID]float64{full: 0.001, near: 0.01, far: 0.1}

	chosen, found := selector.Baseline(candidates, func(id uuid.UUID) float64 { return latencies[id] })
	require.True(t, found)
	assert.Equal(t, near, chosen)
}

func TestBaselineReportsNotFoundWhenSaturated(t *testing.T) {
	candidates := []selector.Candidate{{ID: uuid.New(), AvailableSlots: 0}}
	_, found := selector.Baseline(candidates, func(uuid.UUID) float64 { return 1 })
	assert.False(t, found)
}

func TestRandomUniformOverCandidates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	candidates := []selector.Candidate{{ID: a}, {ID: b}}
	rng := rand.New(rand.NewSource(1))
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 20; i++ {
		chosen, found := selector.Random(candidates, rng)
		require.True(t, found)
		seen[chosen] = true
	}
	assert.Len(t, seen, 2)
}

func TestRandomEmptyCandidates(t *testing.T) {
	_, found := selector.Random(nil, rand.New(rand.NewSource(1)))
	assert.False(t, found)
}

func TestVivaldiPicksClosestCoordinate(t *testing.T) {
	client := coord.Vivaldi{X: 1, Y: 1, H: 0}
	near := uuid.New()
	far := uuid.New()
	news := []overlay.News{
		{ID: near, AvailableSlots: 1, Position: overlay.VirtualPosition{Kind: overlay.PositionVivaldi, Vivaldi: coord.Vivaldi{X: 2, Y: 2, H: 0}}},
		{ID: far, AvailableSlots: 1, Position: overlay.VirtualPosition{Kind: overlay.PositionVivaldi, Vivaldi: coord.Vivaldi{X: 500, Y: 500, H: 0}}},
	}
	chosen, found := selector.Vivaldi(news, client)
	require.True(t, found)
	assert.Equal(t, near, chosen)
}

func TestVivaldiSkipsSaturatedAndNonVivaldiEntries(t *testing.T) {
	client := coord.Vivaldi{X: 1, Y: 1, H: 0}
	saturated := uuid.New()
	news := []overlay.News{
		{ID: saturated, AvailableSlots: 0, Position: overlay.VirtualPosition{Kind: overlay.PositionVivaldi}},
		{ID: uuid.New(), AvailableSlots: 1, Position: overlay.VirtualPosition{Kind: overlay.PositionMeridian}},
	}
	_, found := selector.Vivaldi(news, client)
	assert.False(t, found)
}
