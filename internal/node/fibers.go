package node

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/protocol"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

// Start launches this node's probe, monitor and (under Meridian) ring-
// management fibers. Every node must already have its Peers
// view wired via SetPeers before calling Start.
func (n *Node) Start() {
	n.sched.After(0, func(*simtime.Scheduler) { n.bootstrap() })
	n.scheduleMonitor(0)
	if n.Protocol == protocol.Meridian {
		n.scheduleRingManagement(simtime.Time(n.rng.Float64() * 30))
	}
}

// bootstrap pings every other node exactly once before the probe fiber's
// steady-state loop begins.
func (n *Node) bootstrap() {
	if n.peers != nil {
		for _, id := range n.peers.AllNodeIDs() {
			if id == n.ID {
				continue
			}
			n.sendProbe(id)
		}
	}
	n.bootstrapDone = true
	n.scheduleProbe(n.nextProbeDelay())
}

func (n *Node) scheduleProbe(delay simtime.Time) {
	n.sched.After(delay, func(*simtime.Scheduler) {
		n.probeTick()
		n.scheduleProbe(n.nextProbeDelay())
	})
}

// nextProbeDelay grows as min(2, ln(now+1)) plus small jitter.
func (n *Node) nextProbeDelay() simtime.Time {
	now := float64(n.sched.Now())
	base := math.Min(2, math.Log(now+1))
	return simtime.Time(base + n.rng.Float64()*0.2)
}

// probeTick picks a peer, 50% uniformly random and 50% from the four
// geographically nearest (Dabek's rule), and sends it a type-3 probe.
func (n *Node) probeTick() {
	if n.peers == nil {
		return
	}
	var target uuid.UUID
	var ok bool
	if n.rng.Float64() < 0.5 {
		target, ok = n.randomPeer()
	} else {
		target, ok = n.nearestPeer()
	}
	if !ok {
		return
	}
	n.sendProbe(target)
}

func (n *Node) randomPeer() (uuid.UUID, bool) {
	ids := n.peers.AllNodeIDs()
	candidates := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != n.ID {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return uuid.UUID{}, false
	}
	return candidates[n.rng.Intn(len(candidates))], true
}

// nearestPeer samples uniformly among the 4 geographically nearest peers.
func (n *Node) nearestPeer() (uuid.UUID, bool) {
	neighbors := n.nearestNeighbors(4)
	if len(neighbors) == 0 {
		return uuid.UUID{}, false
	}
	return neighbors[n.rng.Intn(len(neighbors))], true
}

func (n *Node) nearestNeighbors(k int) []uuid.UUID {
	ids := n.peers.AllNodeIDs()
	type ranked struct {
		id   uuid.UUID
		dist float64
	}
	ranked_ := make([]ranked, 0, len(ids))
	for _, id := range ids {
		if id == n.ID {
			continue
		}
		pos, _, _, _, ok := n.peers.NodeState(id)
		if !ok {
			continue
		}
		ranked_ = append(ranked_, ranked{id: id, dist: n.Position.Dist(pos)})
	}
	sort.Slice(ranked_, func(i, j int) bool { return ranked_[i].dist < ranked_[j].dist })
	if len(ranked_) > k {
		ranked_ = ranked_[:k]
	}
	out := make([]uuid.UUID, len(ranked_))
	for i, r := range ranked_ {
		out[i] = r.id
	}
	return out
}

func (n *Node) sendProbe(target uuid.UUID) {
	if !allowProbe(n.limiter, n.ID.String()) {
		return
	}
	now := float64(n.sched.Now())
	news := n.refreshSelfGossip(now)
	n.bus.Send(n.ID, target, ProbeBody{}, []overlay.News{news}, bus.TypeProbe, false, nil)
}

func (n *Node) scheduleMonitor(delay simtime.Time) {
	n.sched.After(delay, func(*simtime.Scheduler) {
		n.monitorTick()
		n.scheduleMonitor(1)
	})
}

// monitorTick evicts clients idle for more than 2s and snapshots workload.
func (n *Node) monitorTick() {
	now := float64(n.sched.Now())
	for id, adm := range n.clients {
		if now-adm.LastTask > 2 {
			delete(n.clients, id)
		}
	}
	util := 0.0
	if n.Slots > 0 {
		util = float64(len(n.clients)) / float64(n.Slots)
	}
	n.Workload = append(n.Workload, WorkloadSample{
		Timestamp:   now,
		NumClients:  len(n.clients),
		Utilization: util,
	})
}

func (n *Node) scheduleRingManagement(delay simtime.Time) {
	n.sched.After(delay, func(*simtime.Scheduler) {
		n.ringManagementTick()
		n.scheduleRingManagement(30)
	})
}

// ringManagementTick runs reduction over every ring, logging and skipping
// any ring that is currently sub-critical. A ring with missing latencies is
// still reduced: members with a NaN entry are dropped first.
func (n *Node) ringManagementTick() {
	if n.Rings == nil {
		return
	}
	for r := 0; r < coord.MaxRings; r++ {
		ringIdx := r
		selfLatency := func(other uuid.UUID) float64 {
			if m, ok := n.Rings.Lookup(ringIdx, other); ok {
				return m.LatencyMs
			}
			return math.NaN()
		}
		if _, _, err := coord.ManageRing(n.Rings, ringIdx, n.ID, selfLatency); err != nil {
			n.logInvariant(err)
		}
	}
}
