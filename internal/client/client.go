// Package client implements the mobile-client side: a trip-plan-driven
// move fiber, a periodic task/reconnection cycle, and the inbound message
// handler a client needs to behave as a bus.Inbox peer of fog nodes
// (nodes address Meridian probe requests straight at clients).
package client

import (
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/input"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/latency"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/node"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/protocol"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

// Peers is the read-only fleet view a client needs to evaluate its
// reconnection rules and to pick a bootstrap node when it has none.
type Peers interface {
	AllNodeIDs() []uuid.UUID
	NodeState(id uuid.UUID) (pos geo.Position, availableSlots int, bandwidth float64, hwTier int, ok bool)
	// TrueLatency is the omniscient client<->node ground truth, used only
	// to stamp a discovery request's opt_node/opt_latency for metrics
	//; no selector may consult it.
	TrueLatency(nodeID uuid.UUID, clientPos geo.Position) float64
}

// Config bundles a client's construction-time parameters.
type Config struct {
	ID       uuid.UUID
	Plan     []input.Leg
	Protocol protocol.Kind
	Towers   []geo.Tower
	Area     geo.Rect
	Seed     int64

	LatencyThreshold   float64
	RoundtripThreshold float64
	TimeoutThreshold   float64
}

// Client is one mobile client: position driven by its trip plan, attached
// to at most one node at a time.
type Client struct {
	ID       uuid.UUID
	Position geo.Position
	Protocol protocol.Kind
	Vivaldi  *coord.Vivaldi

	CurrentNode uuid.UUID
	HasNode     bool

	InHistory  []*bus.Message
	OutHistory []*bus.Message

	Reconnections int
	Stopped       bool
	StopCause     string

	plan       []input.Leg
	legIdx     int
	legElapsed float64

	lastTaskSent     *bus.Message
	lastTaskResponse *bus.Message
	discovered       bool

	area   geo.Rect
	towers []geo.Tower
	peers  Peers

	latencyThreshold   float64
	roundtripThreshold float64
	timeoutThreshold   float64

	bus    *bus.Bus
	sched  *simtime.Scheduler
	rng    *rand.Rand
	logger *slog.Logger
}

// New constructs a client and registers it on the bus. Call Start once the
// arena has wired its Peers view.
func New(cfg Config, b *bus.Bus, sched *simtime.Scheduler, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	start := geo.Position{}
	if len(cfg.Plan) > 0 {
		start = cfg.Plan[0].Position
	}
	c := &Client{
		ID:                 cfg.ID,
		Position:           start,
		Protocol:           cfg.Protocol,
		plan:               cfg.Plan,
		area:               cfg.Area,
		towers:             cfg.Towers,
		latencyThreshold:   cfg.LatencyThreshold,
		roundtripThreshold: cfg.RoundtripThreshold,
		timeoutThreshold:   cfg.TimeoutThreshold,
		bus:                b,
		sched:              sched,
		rng:                rand.New(rand.NewSource(cfg.Seed)),
		logger:             logger.With("component", "client", "client_id", cfg.ID.String()[:8]),
	}
	if cfg.Protocol == protocol.Vivaldi {
		c.Vivaldi = coord.NewVivaldi(cfg.Seed)
	}
	b.Register(cfg.ID, c)
	return c
}

// SetPeers wires the fleet view.
func (c *Client) SetPeers(p Peers) { c.peers = p }

// Deliver implements bus.Inbox.
func (c *Client) Deliver(m *bus.Message) {
	if c.Stopped {
		return
	}
	c.InHistory = append(c.InHistory, m)
	switch m.Type {
	case bus.TypeDiscoveryRequest:
		c.onDiscoveryResponse(m)
	case bus.TypeTask:
		c.onTaskResponse(m)
	case bus.TypeProbe:
		// nodes probe clients only as part of a Meridian ping-request; the
		// client answers each probe so the probing node can measure the
		// latency and report it back to the requester.
		if !m.Response {
			reply := c.bus.Send(c.ID, m.SendID, node.ProbeBody{}, nil, bus.TypeProbe, true, m)
			c.OutHistory = append(c.OutHistory, reply)
		}
	}
}

func (c *Client) onDiscoveryResponse(m *bus.Message) {
	body, ok := m.Body.(node.DiscoveryResponse)
	if !ok || !body.Found {
		return
	}
	c.CurrentNode = body.ChosenNode
	c.HasNode = true
	c.discovered = true
}

func (c *Client) onTaskResponse(m *bus.Message) {
	c.lastTaskResponse = m
	if c.Protocol == protocol.Vivaldi && c.Vivaldi != nil && m.PrevMsg != nil {
		rtt := m.Timestamp - m.PrevMsg.Timestamp + m.Latency
		if peerPos, peerErr, ok := nodeVivaldiFromGossip(m, c.CurrentNode); ok {
			if err := c.Vivaldi.Update(rtt, peerPos, peerErr); err != nil {
				c.logger.Warn("skipping vivaldi update", "error", err)
			}
		}
	}
}

func nodeVivaldiFromGossip(m *bus.Message, nodeID uuid.UUID) (coord.Vivaldi, float64, bool) {
	for _, item := range m.Gossip {
		if item.ID == nodeID && item.Position.Kind == overlay.PositionVivaldi {
			return item.Position.Vivaldi, item.Position.Vivaldi.Err, true
		}
	}
	return coord.Vivaldi{}, 0, false
}

func (c *Client) discoveryTarget() (uuid.UUID, bool) {
	if c.HasNode {
		return c.CurrentNode, true
	}
	if c.peers == nil {
		return uuid.UUID{}, false
	}
	ids := c.peers.AllNodeIDs()
	if len(ids) == 0 {
		return uuid.UUID{}, false
	}
	return ids[c.rng.Intn(len(ids))], true
}

func (c *Client) sendDiscovery() {
	target, ok := c.discoveryTarget()
	if !ok {
		return
	}
	var viv *coord.Vivaldi
	if c.Vivaldi != nil {
		copied := *c.Vivaldi
		viv = &copied
	}
	msg := c.bus.Send(c.ID, target, node.DiscoveryBody{
		ClientID:      c.ID,
		ClientPos:     c.Position,
		ClientVivaldi: viv,
	}, nil, bus.TypeDiscoveryRequest, false, nil)
	if best, bestLat, ok := c.baselineOpt(); ok {
		c.bus.AttachOpt(msg, best, bestLat)
	}
	c.OutHistory = append(c.OutHistory, msg)
}

// baselineOpt computes the omniscient best node for this client's current
// position, stamped onto outgoing discovery requests for later opt_rate /
// discovery_rmse metrics.
func (c *Client) baselineOpt() (uuid.UUID, float64, bool) {
	if c.peers == nil {
		return uuid.UUID{}, 0, false
	}
	best, bestLat, found := uuid.UUID{}, 0.0, false
	for _, id := range c.peers.AllNodeIDs() {
		_, slots, _, _, ok := c.peers.NodeState(id)
		if !ok || slots <= 0 {
			continue
		}
		lat := c.peers.TrueLatency(id, c.Position)
		if !found || lat < bestLat {
			best, bestLat, found = id, lat, true
		}
	}
	return best, bestLat, found
}

func (c *Client) sendTask() {
	if !c.HasNode {
		return
	}
	msg := c.bus.Send(c.ID, c.CurrentNode, node.TaskBody{}, nil, bus.TypeTask, false, nil)
	c.OutHistory = append(c.OutHistory, msg)
	c.lastTaskSent = msg
}

// trueLatencyToCurrent is the ground-truth latency rule input.
func (c *Client) trueLatencyToCurrent() (float64, bool) {
	if !c.HasNode || c.peers == nil {
		return 0, false
	}
	pos, _, bw, hw, ok := c.peers.NodeState(c.CurrentNode)
	if !ok {
		return 0, false
	}
	_, clientToTower := geo.Nearest(c.Position, c.towers)
	_, nodeToTower := geo.Nearest(pos, c.towers)
	return latency.ClientNode(clientToTower, nodeToTower, bw, hw), true
}

// needsReconnect evaluates the latency, round-trip and timeout
// reconnection rules.
func (c *Client) needsReconnect(now float64) bool {
	if !c.HasNode {
		return true
	}
	if trueLat, ok := c.trueLatencyToCurrent(); ok && trueLat > c.latencyThreshold {
		return true
	}
	if c.lastTaskSent != nil && c.lastTaskResponse != nil && c.lastTaskResponse.PrevMsg == c.lastTaskSent {
		rtt := c.lastTaskResponse.Timestamp - c.lastTaskSent.Timestamp + c.lastTaskResponse.Latency
		if rtt > c.roundtripThreshold {
			return true
		}
	}
	if c.lastTaskSent != nil {
		answered := c.lastTaskResponse != nil && c.lastTaskResponse.PrevMsg == c.lastTaskSent
		if !answered && now-c.lastTaskSent.Timestamp > c.timeoutThreshold {
			return true
		}
	}
	return false
}

func (c *Client) stop(cause string) {
	c.Stopped = true
	c.StopCause = cause
	c.logger.Debug("client stopped", "cause", cause)
}
