package coord

import (
	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
)

// MaxRings is the fixed number of latency bands a ring-set indexes.
const MaxRings = 8

// Member is a ring membership record: id, measured latency, the ring index
// it previously occupied, and coordinates, the full latency-vector
// gossiped by that node.
type Member struct {
	ID          uuid.UUID
	LatencyMs   float64
	PrevRing    int
	Coordinates map[uuid.UUID]float64
}

// Ring holds the primary and secondary membership for one latency band.
type Ring struct {
	Primary   []Member
	Secondary []Member
	Frozen    bool
}

// RingSet is a node's full Meridian overlay state: MaxRings rings, each
// with primary capacity k and secondary capacity l.
type RingSet struct {
	Rings [MaxRings]Ring

	K     int // primary capacity, ceil(log_1.6(N))
	L     int // secondary capacity
	Alpha float64
	Scale float64 // ring band scale factor "s", default 1.5
}

// NewRingSet constructs an empty ring-set with the given capacities.
func NewRingSet(k, l int, alpha, scale float64) *RingSet {
	if alpha <= 0 {
		alpha = 1
	}
	if scale <= 1 {
		scale = 1.5
	}
	return &RingSet{K: k, L: l, Alpha: alpha, Scale: scale}
}

// RingIndex computes ring(latencyMs): ring 1 for
// latency < alpha, MaxRings for latency > alpha*scale^MaxRings, else the
// unique i with alpha*scale^(i-1) <= latency < alpha*scale^i. Returned as a
// 0-based array index (ring number - 1).
func (rs *RingSet) RingIndex(latencyMs float64) int {
	if latencyMs < rs.Alpha {
		return 0
	}
	bound := rs.Alpha * pow(rs.Scale, float64(MaxRings))
	if latencyMs > bound {
		return MaxRings - 1
	}
	for i := 1; i <= MaxRings; i++ {
		lo := rs.Alpha * pow(rs.Scale, float64(i-1))
		hi := rs.Alpha * pow(rs.Scale, float64(i))
		if latencyMs >= lo && latencyMs < hi {
			return i - 1
		}
	}
	return MaxRings - 1
}

func pow(base, exp float64) float64 {
	if exp == 0 {
		return 1
	}
	r := 1.0
	for i := 0; i < int(exp); i++ {
		r *= base
	}
	return r
}

// Insert admits or updates a node in its target ring.
func (rs *RingSet) Insert(m Member) error {
	r := rs.RingIndex(m.LatencyMs)
	ring := &rs.Rings[r]
	if ring.Frozen {
		return simerr.ErrProtocol("ring_insert", map[string]any{"reason": "ring frozen", "ring": r})
	}

	if idx := indexOf(ring.Primary, m.ID); idx >= 0 {
		ring.Primary[idx].LatencyMs = m.LatencyMs
		ring.Primary[idx].Coordinates = m.Coordinates
		ring.Primary[idx].PrevRing = r
		return nil
	}
	if idx := indexOf(ring.Secondary, m.ID); idx >= 0 {
		ring.Secondary[idx].LatencyMs = m.LatencyMs
		ring.Secondary[idx].Coordinates = m.Coordinates
		ring.Secondary[idx].PrevRing = r
		return nil
	}

	if m.PrevRing != r {
		rs.erase(m.ID, m.PrevRing)
	}

	m.PrevRing = r
	if len(ring.Primary) < rs.K {
		ring.Primary = append(ring.Primary, m)
		return nil
	}

	ring.Secondary = append(ring.Secondary, m)
	if len(ring.Secondary) > rs.L {
		// FIFO eviction on the local secondary-member slice.
		ring.Secondary = ring.Secondary[1:]
	}
	return nil
}

// erase removes id from ring r (if present), promoting the oldest
// secondary to primary if one exists.
func (rs *RingSet) erase(id uuid.UUID, r int) {
	if r < 0 || r >= MaxRings {
		return
	}
	ring := &rs.Rings[r]
	if idx := indexOf(ring.Primary, id); idx >= 0 {
		ring.Primary = append(ring.Primary[:idx], ring.Primary[idx+1:]...)
		if len(ring.Secondary) > 0 {
			promoted := ring.Secondary[0]
			ring.Secondary = ring.Secondary[1:]
			ring.Primary = append(ring.Primary, promoted)
		}
		return
	}
	if idx := indexOf(ring.Secondary, id); idx >= 0 {
		ring.Secondary = append(ring.Secondary[:idx], ring.Secondary[idx+1:]...)
	}
}

// Erase removes id from whichever ring it currently occupies.
func (rs *RingSet) Erase(id uuid.UUID) {
	for r := range rs.Rings {
		rs.erase(id, r)
	}
}

// Freeze marks ring r frozen against mutation while ring-management
// computes its hypervolume snapshot.
func (rs *RingSet) Freeze(r int)   { rs.Rings[r].Frozen = true }
func (rs *RingSet) Unfreeze(r int) { rs.Rings[r].Frozen = false }

func indexOf(members []Member, id uuid.UUID) int {
	for i, m := range members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Lookup returns the member and true if id is present in ring r (primary
// or secondary).
func (rs *RingSet) Lookup(r int, id uuid.UUID) (Member, bool) {
	if r < 0 || r >= MaxRings {
		return Member{}, false
	}
	ring := &rs.Rings[r]
	if idx := indexOf(ring.Primary, id); idx >= 0 {
		return ring.Primary[idx], true
	}
	if idx := indexOf(ring.Secondary, id); idx >= 0 {
		return ring.Secondary[idx], true
	}
	return Member{}, false
}
