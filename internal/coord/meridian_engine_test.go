package coord_test

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
)

// buildMembers wires up a small, fully-connected latency matrix between
// self and n members: everyone measures everyone else's latency as the
// absolute index distance, so the geometry is deterministic.
func buildMembers(self uuid.UUID, n int) ([]uuid.UUID, []coord.Member) {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	members := make([]coord.Member, n)
	for i, id := range ids {
		coords := map[uuid.UUID]float64{self: float64(i + 1)}
		for j, other := range ids {
			if i == j {
				continue
			}
			coords[other] = math.Abs(float64(i - j))
		}
		members[i] = coord.Member{ID: id, LatencyMs: float64(i + 1), PrevRing: 0, Coordinates: coords}
	}
	return ids, members
}

func selfLatencyOver(ids []uuid.UUID, values []float64) coord.LatencyFunc {
	return func(other uuid.UUID) float64 {
		for i, id := range ids {
			if id == other {
				return values[i]
			}
		}
		return math.NaN()
	}
}

func TestManageRingRejectsSubCriticalMatrix(t *testing.T) {
	rs := coord.NewRingSet(4, 2, 10, 2) // K=4 needs at least 5 total (self+members)
	self := uuid.New()
	ids, members := buildMembers(self, 2)
	rs.Rings[0].Primary = members

	_, _, err := coord.ManageRing(rs, 0, self, selfLatencyOver(ids, []float64{1, 2}))
	assert.Error(t, err)
}

func TestManageRingReducesToPrimaryCapacity(t *testing.T) {
	rs := coord.NewRingSet(2, 2, 10, 2) // K=2
	self := uuid.New()
	ids, members := buildMembers(self, 4) // n = 5, reductions = 5-1-2 = 2
	rs.Rings[0].Primary = members

	primary, secondary, err := coord.ManageRing(rs, 0, self, selfLatencyOver(ids, []float64{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Len(t, primary, rs.K, "ring placement invariant: reduction must leave exactly K primary members")
	assert.Len(t, secondary, 2)

	seen := map[uuid.UUID]bool{}
	for _, m := range append(append([]coord.Member{}, primary...), secondary...) {
		assert.False(t, seen[m.ID], "member %s counted twice across primary/secondary", m.ID)
		seen[m.ID] = true
		assert.NotEqual(t, self, m.ID, "self must never appear as a ring member")
	}
	assert.Len(t, seen, 4, "every original member must end up in either primary or secondary")
}

func TestManageRingUnfreezesRingOnReturn(t *testing.T) {
	rs := coord.NewRingSet(2, 2, 10, 2)
	self := uuid.New()
	ids, members := buildMembers(self, 3)
	rs.Rings[0].Primary = members

	_, _, err := coord.ManageRing(rs, 0, self, selfLatencyOver(ids, []float64{1, 2, 3}))
	require.NoError(t, err)
	assert.False(t, rs.Rings[0].Frozen)
}

func TestManageRingPrioritizesNaNMemberForRemoval(t *testing.T) {
	rs := coord.NewRingSet(2, 2, 10, 2) // K=2
	self := uuid.New()
	ids, members := buildMembers(self, 3) // A, B, C in insertion order

	// B is missing its gossiped coordinate toward C: a realistic incomplete
	// gossip vector. This must not abort ring-management; pickWorst should
	// simply prioritize dropping the member with the NaN entry.
	delete(members[1].Coordinates, ids[2])
	rs.Rings[0].Primary = members

	primary, secondary, err := coord.ManageRing(rs, 0, self, selfLatencyOver(ids, []float64{1, 2, 3}))
	require.NoError(t, err)
	require.Len(t, secondary, 1)
	assert.Equal(t, ids[1], secondary[0].ID, "the member with the incomplete gossip vector should be dropped first")
	assert.Len(t, primary, rs.K)
}

func TestManageRingSucceedsWithIncompleteGossipVectorAmongManyMembers(t *testing.T) {
	rs := coord.NewRingSet(3, 2, 10, 2) // K=3, only one reduction needed
	self := uuid.New()
	ids, members := buildMembers(self, 4)
	delete(members[0].Coordinates, ids[3]) // A is missing D's distance

	rs.Rings[0].Primary = members
	primary, secondary, err := coord.ManageRing(rs, 0, self, selfLatencyOver(ids, []float64{1, 2, 3, 4}))
	require.NoError(t, err, "an incomplete gossip vector must not abort ring-management")
	assert.Len(t, primary, rs.K)
	require.Len(t, secondary, 1)
	assert.Equal(t, ids[0], secondary[0].ID, "the member whose own gossip vector was incomplete is dropped first")
}
