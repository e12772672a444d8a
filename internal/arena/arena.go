// Package arena owns every participant of a run: the bus, the towers, and
// the full node/client population, addressed only by identifier. It
// implements the narrow Peers views node and client need and prices every
// hop for the bus's LatencyFunc.
package arena

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/client"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/latency"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/node"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

// Arena is the arena of participants: the scheduler and bus that drive a
// run, plus every node and client, ordered deterministically (map
// iteration order is not reproducible and must never be used to drive the
// simulation determinism).
type Arena struct {
	sched  *simtime.Scheduler
	bus    *bus.Bus
	towers []geo.Tower
	logger *slog.Logger

	nodes     map[uuid.UUID]*node.Node
	clients   map[uuid.UUID]*client.Client
	nodeIDs   []uuid.UUID
	clientIDs []uuid.UUID
}

// New constructs an empty arena bound to sched, with towers for last-mile
// hop lookup.
func New(sched *simtime.Scheduler, towers []geo.Tower, logger *slog.Logger) *Arena {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Arena{
		sched:   sched,
		towers:  towers,
		logger:  logger.With("component", "arena"),
		nodes:   make(map[uuid.UUID]*node.Node),
		clients: make(map[uuid.UUID]*client.Client),
	}
	a.bus = bus.New(sched, a.latencyFor, logger)
	return a
}

// Bus returns the shared bus, for node.New/client.New construction.
func (a *Arena) Bus() *bus.Bus { return a.bus }

// AddNode registers n and wires its Peers view.
func (a *Arena) AddNode(n *node.Node) {
	a.nodes[n.ID] = n
	a.nodeIDs = append(a.nodeIDs, n.ID)
	n.SetPeers(a)
}

// AddClient registers c and wires its Peers view.
func (a *Arena) AddClient(c *client.Client) {
	a.clients[c.ID] = c
	a.clientIDs = append(a.clientIDs, c.ID)
	c.SetPeers(a)
}

// Nodes returns every registered node, in registration order.
func (a *Arena) Nodes() []*node.Node {
	out := make([]*node.Node, len(a.nodeIDs))
	for i, id := range a.nodeIDs {
		out[i] = a.nodes[id]
	}
	return out
}

// Clients returns every registered client, in registration order.
func (a *Arena) Clients() []*client.Client {
	out := make([]*client.Client, len(a.clientIDs))
	for i, id := range a.clientIDs {
		out[i] = a.clients[id]
	}
	return out
}

// Start launches every node's and every client's fibers. Call once the
// full population is registered: a node's bootstrap probe round needs
// every peer's AllNodeIDs to already be complete.
func (a *Arena) Start() {
	for _, id := range a.nodeIDs {
		a.nodes[id].Start()
	}
	for _, id := range a.clientIDs {
		a.clients[id].Start()
	}
}

// Run sets the scheduler's per-second tick callback and drains events up
// to limit.
func (a *Arena) Run(limit simtime.Time, onTick func(simtime.Time)) {
	if onTick != nil {
		a.sched.OnSecondTick(onTick)
	}
	a.sched.Run(limit)
}

// AllNodeIDs implements node.Peers and client.Peers.
func (a *Arena) AllNodeIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(a.nodeIDs))
	copy(out, a.nodeIDs)
	return out
}

// NodeState implements node.Peers and client.Peers.
func (a *Arena) NodeState(id uuid.UUID) (pos geo.Position, availableSlots int, bandwidth float64, hwTier int, ok bool) {
	n, found := a.nodes[id]
	if !found {
		return geo.Position{}, 0, 0, 0, false
	}
	return n.Position, n.AvailableSlots(), n.Bandwidth(), n.HWTier, true
}

// MeasuredLatency implements node.Peers: the backhaul ground truth between
// two nodes, standing in for a measured value no node individually tracks
// across its whole ring-set.
func (a *Arena) MeasuredLatency(x, y uuid.UUID) float64 {
	nx, okX := a.nodes[x]
	ny, okY := a.nodes[y]
	if !okX || !okY {
		return 0
	}
	distance := nx.Position.Dist(ny.Position)
	return latency.NodeNode(distance, nx.Bandwidth(), ny.Bandwidth(), nx.HWTier, ny.HWTier)
}

// TrueLatency implements client.Peers: the omniscient client<->node
// latency, used only to stamp opt_node/opt_latency for metrics.
func (a *Arena) TrueLatency(nodeID uuid.UUID, clientPos geo.Position) float64 {
	n, ok := a.nodes[nodeID]
	if !ok {
		return 0
	}
	return n.TrueLatencyToClient(clientPos)
}

// latencyFor is the bus.LatencyFunc: classify both ends and price the hop
// with the matching model from internal/latency.
func (a *Arena) latencyFor(sendID, recID uuid.UUID) float64 {
	sendNode, sendIsNode := a.nodes[sendID]
	recNode, recIsNode := a.nodes[recID]
	sendClient, sendIsClient := a.clients[sendID]
	recClient, recIsClient := a.clients[recID]

	switch {
	case sendIsNode && recIsNode:
		d := sendNode.Position.Dist(recNode.Position)
		return latency.NodeNode(d, sendNode.Bandwidth(), recNode.Bandwidth(), sendNode.HWTier, recNode.HWTier)
	case sendIsNode && recIsClient:
		return sendNode.TrueLatencyToClient(recClient.Position)
	case sendIsClient && recIsNode:
		return recNode.TrueLatencyToClient(sendClient.Position)
	default:
		return 0
	}
}
