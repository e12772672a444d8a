// Package scenario applies the `simulation.area_selection`, `nodes.*` and
// `clients.*` population filters to the raw node-location
// and trip-plan records, and synthesizes the static cell-tower grid the
// latency model hops through. Tower placement itself is not a
// configuration input, so a regular grid over the map bounds stands in
// for it.
package scenario

import (
	"math"
	"sort"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/config"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/input"
)

// Towers lays out a 3x3 grid of cell towers spanning the map bounds.
func Towers(m config.Map) []geo.Tower {
	const grid = 3
	out := make([]geo.Tower, 0, grid*grid)
	for i := 0; i < grid; i++ {
		for j := 0; j < grid; j++ {
			x := m.XMin + (m.XMax-m.XMin)*(float64(i)+0.5)/grid
			y := m.YMin + (m.YMax-m.YMin)*(float64(j)+0.5)/grid
			out = append(out, geo.Tower{Position: geo.Position{X: x, Y: y}})
		}
	}
	return out
}

func center(m config.Map) geo.Position {
	return geo.Position{X: (m.XMin + m.XMax) / 2, Y: (m.YMin + m.YMax) / 2}
}

// SelectNodes applies area_selection and the min/max node bounds to the raw
// node-location list, in deterministic (distance-to-center) order so the
// same input always yields the same selection.
func SelectNodes(locations []input.NodeLocation, sim config.Simulation, m config.Map, nodesCfg config.Nodes) []input.NodeLocation {
	c := center(m)
	filtered := filterByArea(locations, func(l input.NodeLocation) geo.Position { return l.Position }, sim, c)

	sort.SliceStable(filtered, func(i, j int) bool {
		return c.Dist(filtered[i].Position) < c.Dist(filtered[j].Position)
	})

	if nodesCfg.MinNodes > 0 && len(filtered) < nodesCfg.MinNodes {
		// widen by distance-to-center over the unfiltered set
		sort.SliceStable(locations, func(i, j int) bool {
			return c.Dist(locations[i].Position) < c.Dist(locations[j].Position)
		})
		if len(locations) > nodesCfg.MinNodes {
			filtered = locations[:nodesCfg.MinNodes]
		} else {
			filtered = locations
		}
	}
	if nodesCfg.MaxNodes != nil && len(filtered) > *nodesCfg.MaxNodes {
		filtered = filtered[:*nodesCfg.MaxNodes]
	}
	return filtered
}

// SelectClients applies area_selection, client_ratio and max_clients to the
// raw trip-plan list. totalSlots is the admission capacity across the
// already-selected node population.
func SelectClients(plans []input.TripPlan, sim config.Simulation, m config.Map, clientsCfg config.Clients, totalSlots int) []input.TripPlan {
	c := center(m)
	filtered := filterByArea(plans, func(p input.TripPlan) geo.Position {
		if len(p.Legs) == 0 {
			return c
		}
		return p.Legs[0].Position
	}, sim, c)

	limit := len(filtered)
	if clientsCfg.ClientRatio > 0 {
		ratioLimit := int(math.Floor(float64(totalSlots) * clientsCfg.ClientRatio))
		if ratioLimit < limit {
			limit = ratioLimit
		}
	}
	if clientsCfg.MaxClients != nil && *clientsCfg.MaxClients < limit {
		limit = *clientsCfg.MaxClients
	}
	if limit < 0 {
		limit = 0
	}
	if limit < len(filtered) {
		filtered = filtered[:limit]
	}
	return filtered
}

func filterByArea[T any](items []T, pos func(T) geo.Position, sim config.Simulation, c geo.Position) []T {
	switch sim.AreaSelection {
	case config.AreaAll:
		return items
	case config.AreaCenter:
		out := make([]T, 0, len(items))
		for _, it := range items {
			if c.Dist(pos(it)) <= sim.Area {
				out = append(out, it)
			}
		}
		return out
	case config.AreaRandom:
		// deterministic pseudo-random keep, seeded from the config seed so
		// the selection itself stays reproducible.
		out := make([]T, 0, len(items))
		rng := newSeededFraction(sim.Seed)
		for i, it := range items {
			if rng(i) <= 0.5 {
				out = append(out, it)
			}
		}
		return out
	default:
		return items
	}
}

// newSeededFraction returns a deterministic, seed-dependent pseudo-random
// fraction in [0,1) for index i, without pulling in a stateful RNG (area
// selection must not perturb any participant's own seeded generator).
func newSeededFraction(seed int64) func(i int) float64 {
	return func(i int) float64 {
		x := uint64(seed)*2654435761 + uint64(i)*40503
		x ^= x >> 13
		x *= 0x2545F4914F6CDD1D
		x ^= x >> 33
		return float64(x%1000000) / 1000000
	}
}
