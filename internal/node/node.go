// Package node implements the fog-node state machine: per-node dispatch
// by message type, gossip merge, probing, Meridian ring management, and
// slot accounting.
package node

import (
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/yasserelgammal/rate-limiter/limiter"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/latency"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/protocol"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

// Peers is the read-only view of the rest of the fleet a node uses for
// probing and for its Baseline/Random candidate lists. The node package
// does not call MeasuredLatency. It is satisfied by the arena that owns
// every node: participants never hold live references to each other, only
// identifiers resolved through this narrow interface.
type Peers interface {
	AllNodeIDs() []uuid.UUID
	NodeState(id uuid.UUID) (pos geo.Position, availableSlots int, bandwidth float64, hwTier int, ok bool)
	MeasuredLatency(a, b uuid.UUID) float64
}

// ClientAdmission tracks one admitted client's last task timestamp, used
// by the monitor fiber's 2s idle eviction rule.
type ClientAdmission struct {
	LastTask float64
}

// WorkloadSample is one monitor-fiber snapshot.
type WorkloadSample struct {
	Timestamp   float64
	NumClients  int
	Utilization float64
}

type meridianAwait struct {
	Requester uuid.UUID
	Target    uuid.UUID
}

type pingCollection struct {
	responses map[uuid.UUID]float64
	cancel    func()
	request   *bus.Message
}

// Node is one fog server: bounded clients set, workload history, and
// per-protocol overlay state (Vivaldi coordinate or Meridian ring-set).
type Node struct {
	ID       uuid.UUID
	Position geo.Position
	Slots    int
	HWTier   int
	Protocol protocol.Kind

	clients   map[uuid.UUID]*ClientAdmission
	Workload  []WorkloadSample
	InHistory []*bus.Message

	Gossip  *overlay.Store
	Vivaldi *coord.Vivaldi
	Rings   *coord.RingSet

	meridianPending map[uuid.UUID]*pingCollection // target -> in-flight search (requester side)
	meridianAwaits  map[uuid.UUID]meridianAwait    // probe target -> who asked (responder side)

	bus     *bus.Bus
	sched   *simtime.Scheduler
	towers  []geo.Tower
	peers   Peers
	rng     *rand.Rand
	breaker *gobreaker.CircuitBreaker
	limiter *limiter.TokenBucket
	logger  *slog.Logger

	probedBootstrap map[uuid.UUID]bool
	bootstrapDone   bool
}

// Config bundles a node's construction-time parameters.
type Config struct {
	ID        uuid.UUID
	Position  geo.Position
	Slots     int
	HWTier    int
	Protocol  protocol.Kind
	Towers    []geo.Tower
	Seed      int64
	RingK     int
	RingL     int
	RingAlpha float64
	RingScale float64
}

// New constructs a node and registers it on bus, but does not yet start its
// fibers — call Start once every node's Peers view is wired (all nodes must
// exist before any node can list its peers).
func New(cfg Config, b *bus.Bus, sched *simtime.Scheduler, logger *slog.Logger) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Node{
		ID:              cfg.ID,
		Position:        cfg.Position,
		Slots:           cfg.Slots,
		HWTier:          cfg.HWTier,
		Protocol:        cfg.Protocol,
		clients:         make(map[uuid.UUID]*ClientAdmission),
		Gossip:          overlay.NewStore(),
		meridianPending: make(map[uuid.UUID]*pingCollection),
		meridianAwaits:  make(map[uuid.UUID]meridianAwait),
		bus:             b,
		sched:           sched,
		towers:          cfg.Towers,
		rng:             rand.New(rand.NewSource(cfg.Seed)),
		breaker:         newAdmissionBreaker(cfg.ID.String()),
		limiter:         newProbeLimiter(20, 5),
		logger:          logger.With("component", "node", "node_id", cfg.ID.String()[:8]),
		probedBootstrap: make(map[uuid.UUID]bool),
	}
	switch cfg.Protocol {
	case protocol.Vivaldi:
		n.Vivaldi = coord.NewVivaldi(cfg.Seed)
	case protocol.Meridian:
		n.Rings = coord.NewRingSet(cfg.RingK, cfg.RingL, cfg.RingAlpha, cfg.RingScale)
	}
	b.Register(cfg.ID, n)
	return n
}

// SetPeers wires the fleet view, once every node in the arena exists.
func (n *Node) SetPeers(p Peers) { n.peers = p }

// Bandwidth returns this node's current bandwidth fraction, degraded by
// load.
func (n *Node) Bandwidth() float64 {
	return latency.NodeBandwidth(len(n.clients), n.Slots)
}

// AvailableSlots returns how many admission slots remain.
func (n *Node) AvailableSlots() int {
	return n.Slots - len(n.clients)
}

// TrueLatencyToClient computes the ground-truth client<->node latency via
// each party's nearest-tower hop.
func (n *Node) TrueLatencyToClient(clientPos geo.Position) float64 {
	_, clientToTower := geo.Nearest(clientPos, n.towers)
	_, nodeToTower := geo.Nearest(n.Position, n.towers)
	return latency.ClientNode(clientToTower, nodeToTower, n.Bandwidth(), n.HWTier)
}

// refreshSelfGossip rebuilds this node's self-news entry with its current
// position, free-slot count and virtual-position snapshot, to be
// piggy-backed on the next outbound message.
func (n *Node) refreshSelfGossip(now float64) overlay.News {
	news := overlay.News{
		ID:             n.ID,
		Timestamp:      now,
		Type:           "node",
		AvailableSlots: n.AvailableSlots(),
	}
	switch n.Protocol {
	case protocol.Vivaldi:
		news.Position = overlay.VirtualPosition{Kind: overlay.PositionVivaldi, Vivaldi: *n.Vivaldi}
	case protocol.Meridian:
		news.Position = overlay.VirtualPosition{Kind: overlay.PositionMeridian, Meridian: n.ringLatencyVector()}
	}
	n.Gossip.RefreshSelf(news)
	return news
}

func (n *Node) ringLatencyVector() map[uuid.UUID]float64 {
	out := make(map[uuid.UUID]float64)
	if n.Rings == nil {
		return out
	}
	for _, ring := range n.Rings.Rings {
		for _, m := range ring.Primary {
			out[m.ID] = m.LatencyMs
		}
		for _, m := range ring.Secondary {
			out[m.ID] = m.LatencyMs
		}
	}
	return out
}

// mergeGossip folds incoming news into this node's store.
func (n *Node) mergeGossip(items []overlay.News) {
	n.Gossip.MergeAll(items)
}

// logInvariant reports a math-kernel or protocol-level anomaly at warn
// level and otherwise ignores it: the overlay self-heals.
func (n *Node) logInvariant(err error) {
	if err == nil {
		return
	}
	if se, ok := err.(*simerr.SimError); ok {
		n.logger.Warn("skipping update", "code", se.Code, "message", se.Message)
		return
	}
	n.logger.Warn("skipping update", "error", err)
}
