// Package selector implements the closest-node selection strategies:
// Baseline (omniscient), Random, and Vivaldi. Meridian's
// recursive-ping selection is message-driven and lives in the node
// package's own dispatch, since it is the contacted node progressively
// forwarding the request through its own ring-set rather than a pure
// function over a snapshot.
package selector

import (
	"bytes"
	"math/rand"

	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
)

// Candidate is one fog node's selectable state, supplied by the caller.
type Candidate struct {
	ID             uuid.UUID
	AvailableSlots int
}

// Baseline scans every candidate with a free slot, computes the true
// client<->node latency via trueLatency, and returns the lowest-latency
// one, breaking ties by identifier. Returns ok=false iff the whole fleet
// is saturated.
func Baseline(candidates []Candidate, trueLatency func(nodeID uuid.UUID) float64) (uuid.UUID, bool) {
	var best uuid.UUID
	bestLatency := -1.0
	found := false
	for _, c := range candidates {
		if c.AvailableSlots <= 0 {
			continue
		}
		l := trueLatency(c.ID)
		if !found || l < bestLatency || (l == bestLatency && bytes.Compare(c.ID[:], best[:]) < 0) {
			best = c.ID
			bestLatency = l
			found = true
		}
	}
	return best, found
}

// Random uniformly samples one candidate, regardless of slot availability
//.
func Random(candidates []Candidate, rng *rand.Rand) (uuid.UUID, bool) {
	if len(candidates) == 0 {
		return uuid.UUID{}, false
	}
	return candidates[rng.Intn(len(candidates))].ID, true
}

// Vivaldi picks, among gossiped fog-node entries with available slots, the
// one whose stored coordinate minimizes estimateRTT(clientCoord, entry).
// estimateRTT returns coord.Dist, or 0 if either endpoint is still at the
// origin coordinate.
func Vivaldi(news []overlay.News, clientCoord coord.Vivaldi) (uuid.UUID, bool) {
	var best uuid.UUID
	bestRTT := -1.0
	found := false
	for _, n := range news {
		if n.Position.Kind != overlay.PositionVivaldi || n.AvailableSlots <= 0 {
			continue
		}
		rtt := estimateRTT(clientCoord, n.Position.Vivaldi)
		if !found || rtt < bestRTT {
			best = n.ID
			bestRTT = rtt
			found = true
		}
	}
	return best, found
}

func estimateRTT(a, b coord.Vivaldi) float64 {
	if isOrigin(a) || isOrigin(b) {
		return 0
	}
	return coord.Dist(a, b)
}

func isOrigin(v coord.Vivaldi) bool {
	return v.X == 0 && v.Y == 0 && v.H == 0
}
