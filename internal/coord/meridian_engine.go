package coord

import (
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
)

// LatencyFunc returns the self node's measured latency to other, or NaN if
// unknown.
type LatencyFunc func(other uuid.UUID) float64

// ManageRing runs one round of ring-management for ring
// ringIdx: build the pairwise-latency matrix from self plus primary ∪
// secondary, reduce it by repeatedly dropping the member whose removal
// maximizes the remaining hypervolume, and return the new primary and
// secondary sets (in drop order for secondary).
func ManageRing(rs *RingSet, ringIdx int, selfID uuid.UUID, selfLatency LatencyFunc) (primary, secondary []Member, err error) {
	ring := &rs.Rings[ringIdx]
	members := make([]Member, 0, len(ring.Primary)+len(ring.Secondary))
	members = append(members, ring.Primary...)
	members = append(members, ring.Secondary...)

	n := len(members) + 1 // + self
	if n < rs.K+1 {
		return nil, nil, simerr.ErrProtocol("ring_management", map[string]any{
			"reason": "sub-critical matrix", "size": n, "required": rs.K + 1,
		})
	}

	ids := make([]uuid.UUID, n)
	ids[0] = selfID
	for i, m := range members {
		ids[i+1] = m.ID
	}

	grid := buildGrid(ids, members, selfLatency)

	// A NaN entry (missing gossip coordinate) is not fatal: pickWorst gives
	// any row/column containing one priority for removal below, so the
	// matrix self-heals over successive reduction steps rather than
	// blocking ring-management outright.

	rs.Freeze(ringIdx)
	defer rs.Unfreeze(ringIdx)

	alive := make([]int, n) // indices into ids/grid still present
	for i := range alive {
		alive[i] = i
	}

	dropOrder := make([]uuid.UUID, 0, len(members))
	reductions := len(alive) - 1 - rs.K
	for step := 0; step < reductions && len(alive) > rs.K+1; step++ {
		worst, isNaNDrop := pickWorst(grid, ids, alive)
		dropID := ids[alive[worst]]
		if dropID != selfID {
			dropOrder = append(dropOrder, dropID)
		}
		alive = append(alive[:worst], alive[worst+1:]...)
		_ = isNaNDrop
	}

	primary = make([]Member, 0, rs.K)
	for _, idx := range alive {
		if ids[idx] == selfID {
			continue
		}
		if m, ok := findMember(members, ids[idx]); ok {
			primary = append(primary, m)
		}
	}
	secondary = make([]Member, 0, len(dropOrder))
	for _, id := range dropOrder {
		if m, ok := findMember(members, id); ok {
			secondary = append(secondary, m)
		}
	}

	ring.Primary = primary
	ring.Secondary = secondary
	return primary, secondary, nil
}

func findMember(members []Member, id uuid.UUID) (Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

func buildGrid(ids []uuid.UUID, members []Member, selfLatency LatencyFunc) [][]float64 {
	n := len(ids)
	grid := make([][]float64, n)
	for i := range grid {
		grid[i] = make([]float64, n)
	}
	for i, id := range ids {
		for j, other := range ids {
			if i == j {
				grid[i][j] = 0
				continue
			}
			if i == 0 {
				grid[i][j] = selfLatency(other)
				continue
			}
			mem := members[i-1]
			if v, ok := mem.Coordinates[other]; ok {
				grid[i][j] = v
			} else {
				grid[i][j] = math.NaN()
			}
		}
	}
	return grid
}

// pickWorst returns the position within alive of the member whose removal
// maximizes the remaining hypervolume. A member with any NaN in its
// row/column is removed unconditionally, taking priority over the
// hypervolume comparison. Grid index 0 is the ring owner itself, which is
// never a removal candidate.
func pickWorst(grid [][]float64, ids []uuid.UUID, alive []int) (pos int, wasNaNDrop bool) {
	for i, idx := range alive {
		if idx != 0 && rowHasNaN(grid, ids, idx, alive) {
			return i, true
		}
	}

	bestVol := -1.0
	bestPos := -1
	for i, idx := range alive {
		if idx == 0 {
			continue
		}
		candidate := without(alive, i)
		sub := subMatrix(grid, candidate)
		vol, err := Hypervolume(sub)
		if err != nil || math.IsNaN(vol) {
			return i, true
		}
		if bestPos < 0 || vol > bestVol {
			bestVol = vol
			bestPos = i
		}
	}
	return bestPos, false
}

func rowHasNaN(grid [][]float64, ids []uuid.UUID, idx int, alive []int) bool {
	for _, j := range alive {
		if math.IsNaN(grid[idx][j]) || math.IsNaN(grid[j][idx]) {
			return true
		}
	}
	return false
}

func without(alive []int, pos int) []int {
	out := make([]int, 0, len(alive)-1)
	out = append(out, alive[:pos]...)
	out = append(out, alive[pos+1:]...)
	return out
}

func subMatrix(grid [][]float64, idxs []int) *mat.Dense {
	n := len(idxs)
	data := make([]float64, n*n)
	for i, gi := range idxs {
		for j, gj := range idxs {
			data[i*n+j] = grid[gi][gj]
		}
	}
	return mat.NewDense(n, n, data)
}
