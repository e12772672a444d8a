package coord_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
)

func newRingSet() *coord.RingSet {
	return coord.NewRingSet(3, 2, 10, 2)
}

func TestRingIndexBandsByAlphaScale(t *testing.T) {
	rs := newRingSet() // alpha=10, scale=2: ring0 [0,20), ring1 [20,40), ring2 [40,80), ...
	assert.Equal(t, 0, rs.RingIndex(5))
	assert.Equal(t, 0, rs.RingIndex(19.99))
	assert.Equal(t, 1, rs.RingIndex(20))
	assert.Equal(t, 1, rs.RingIndex(39.99))
	assert.Equal(t, 2, rs.RingIndex(40))
}

func TestRingIndexClampsAboveTopBand(t *testing.T) {
	rs := newRingSet()
	huge := rs.RingIndex(1e12)
	assert.Equal(t, coord.MaxRings-1, huge)
}

func TestInsertFillsPrimaryBeforeSecondary(t *testing.T) {
	rs := newRingSet()
	for i := 0; i < rs.K; i++ {
		require.NoError(t, rs.Insert(coord.Member{ID: uuid.New(), LatencyMs: 1, PrevRing: -1}))
	}
	ring := rs.Rings[0]
	assert.Len(t, ring.Primary, rs.K)
	assert.Empty(t, ring.Secondary)

	require.NoError(t, rs.Insert(coord.Member{ID: uuid.New(), LatencyMs: 1, PrevRing: -1}))
	ring = rs.Rings[0]
	assert.Len(t, ring.Primary, rs.K)
	assert.Len(t, ring.Secondary, 1)
}

func TestInsertEvictsOldestSecondaryPastCapacityL(t *testing.T) {
	rs := newRingSet() // K=3, L=2
	for i := 0; i < rs.K; i++ {
		require.NoError(t, rs.Insert(coord.Member{ID: uuid.New(), LatencyMs: 1, PrevRing: -1}))
	}
	first := uuid.New()
	require.NoError(t, rs.Insert(coord.Member{ID: first, LatencyMs: 1, PrevRing: -1}))
	require.NoError(t, rs.Insert(coord.Member{ID: uuid.New(), LatencyMs: 1, PrevRing: -1}))
	// third secondary insert should evict `first` under L=2.
	require.NoError(t, rs.Insert(coord.Member{ID: uuid.New(), LatencyMs: 1, PrevRing: -1}))

	_, found := rs.Lookup(0, first)
	assert.False(t, found, "oldest secondary member should have been FIFO-evicted")
	assert.Len(t, rs.Rings[0].Secondary, rs.L)
}

func TestInsertRejectsFrozenRing(t *testing.T) {
	rs := newRingSet()
	rs.Freeze(0)
	err := rs.Insert(coord.Member{ID: uuid.New(), LatencyMs: 1, PrevRing: -1})
	assert.Error(t, err)
}

func TestUnfreezeAllowsInsertAgain(t *testing.T) {
	rs := newRingSet()
	rs.Freeze(0)
	rs.Unfreeze(0)
	err := rs.Insert(coord.Member{ID: uuid.New(), LatencyMs: 1, PrevRing: -1})
	assert.NoError(t, err)
}

func TestInsertMovesMemberBetweenRingsOnLatencyChange(t *testing.T) {
	rs := newRingSet()
	id := uuid.New()
	require.NoError(t, rs.Insert(coord.Member{ID: id, LatencyMs: 1, PrevRing: -1}))
	_, foundInRing0 := rs.Lookup(0, id)
	require.True(t, foundInRing0)

	require.NoError(t, rs.Insert(coord.Member{ID: id, LatencyMs: 25, PrevRing: 0}))
	_, stillInRing0 := rs.Lookup(0, id)
	_, nowInRing1 := rs.Lookup(1, id)
	assert.False(t, stillInRing0)
	assert.True(t, nowInRing1)
}

func TestErasePromotesOldestSecondaryToPrimary(t *testing.T) {
	rs := newRingSet()
	var primaryIDs []uuid.UUID
	for i := 0; i < rs.K; i++ {
		id := uuid.New()
		primaryIDs = append(primaryIDs, id)
		require.NoError(t, rs.Insert(coord.Member{ID: id, LatencyMs: 1, PrevRing: -1}))
	}
	secondaryID := uuid.New()
	require.NoError(t, rs.Insert(coord.Member{ID: secondaryID, LatencyMs: 1, PrevRing: -1}))

	rs.Erase(primaryIDs[0])

	_, stillPresent := rs.Lookup(0, primaryIDs[0])
	assert.False(t, stillPresent)
	_, promoted := rs.Lookup(0, secondaryID)
	assert.True(t, promoted)
	assert.Empty(t, rs.Rings[0].Secondary)
}
