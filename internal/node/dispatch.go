package node

import (
	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/latency"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/protocol"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/selector"
)

// Deliver implements bus.Inbox: dispatch by message type.
func (n *Node) Deliver(m *bus.Message) {
	n.InHistory = append(n.InHistory, m)
	n.mergeGossip(m.Gossip)
	switch m.Type {
	case bus.TypeTask:
		n.handleTask(m)
	case bus.TypeDiscoveryRequest:
		n.handleDiscovery(m)
	case bus.TypeProbe:
		n.handleProbe(m)
	case bus.TypeMeridianPing:
		n.handleMeridianPing(m)
	}
}

func (n *Node) handleTask(m *bus.Message) {
	now := float64(n.sched.Now())
	if adm, ok := n.clients[m.SendID]; ok {
		adm.LastTask = now
	} else if n.AvailableSlots() > 0 {
		admitted := admit(n.breaker, func() bool {
			if n.AvailableSlots() <= 0 {
				return false
			}
			n.clients[m.SendID] = &ClientAdmission{LastTask: now}
			return true
		})
		if !admitted {
			return // saturated/breaker-open: drop silently
		}
	} else {
		return
	}
	news := n.refreshSelfGossip(now)
	n.bus.Send(n.ID, m.SendID, TaskBody{}, append([]overlay.News{news}, n.Gossip.Snapshot()...), bus.TypeTask, true, m)
}

func (n *Node) handleDiscovery(m *bus.Message) {
	body, ok := m.Body.(DiscoveryBody)
	if !ok {
		return
	}
	now := float64(n.sched.Now())
	news := n.refreshSelfGossip(now)
	gossip := append([]overlay.News{news}, n.Gossip.Snapshot()...)

	switch n.Protocol {
	case protocol.Meridian:
		n.meridianDiscover(m, body)
		return
	case protocol.Baseline:
		chosen, found := selector.Baseline(n.baselineCandidates(), func(id uuid.UUID) float64 {
			return n.peerTrueLatency(id, body.ClientPos)
		})
		n.replyDiscovery(m, gossip, chosen, found)
	case protocol.Vivaldi:
		chosen, found := selector.Vivaldi(n.Gossip.Snapshot(), vivaldiOf(body))
		n.replyDiscovery(m, gossip, chosen, found)
	case protocol.Random:
		chosen, found := selector.Random(n.baselineCandidates(), n.rng)
		n.replyDiscovery(m, gossip, chosen, found)
	}
}

func vivaldiOf(body DiscoveryBody) coord.Vivaldi {
	if body.ClientVivaldi == nil {
		return coord.Vivaldi{}
	}
	return *body.ClientVivaldi
}

func (n *Node) replyDiscovery(m *bus.Message, gossip []overlay.News, chosen uuid.UUID, found bool) {
	n.bus.Send(n.ID, m.SendID, DiscoveryResponse{ChosenNode: chosen, Found: found}, gossip, bus.TypeDiscoveryRequest, true, m)
}

// baselineCandidates lists every peer's slot count, used by the Baseline
// and Random selectors.
func (n *Node) baselineCandidates() []selector.Candidate {
	out := make([]selector.Candidate, 0)
	if n.peers == nil {
		return out
	}
	for _, id := range n.peers.AllNodeIDs() {
		_, slots, _, _, ok := n.peers.NodeState(id)
		if !ok {
			continue
		}
		out = append(out, selector.Candidate{ID: id, AvailableSlots: slots})
	}
	return out
}

// peerTrueLatency computes the ground-truth client<->peer latency from the
// arena's view of that peer, for the Baseline oracle.
func (n *Node) peerTrueLatency(nodeID uuid.UUID, clientPos geo.Position) float64 {
	pos, _, bw, hw, ok := n.peers.NodeState(nodeID)
	if !ok {
		return 1e9
	}
	_, clientToTower := geo.Nearest(clientPos, n.towers)
	_, nodeToTower := geo.Nearest(pos, n.towers)
	return latency.ClientNode(clientToTower, nodeToTower, bw, hw)
}

func (n *Node) handleProbe(m *bus.Message) {
	if m.Response {
		if n.handleMeridianProbeResponse(m) {
			return
		}
		if n.Protocol == protocol.Vivaldi && n.Vivaldi != nil {
			if peerPos, ok := vivaldiFromGossip(m.Gossip, m.SendID); ok {
				if err := n.Vivaldi.Update(m.Latency*2, peerPos, peerErrFromGossip(m.Gossip, m.SendID)); err != nil {
					n.logInvariant(err)
				}
			}
		}
		if n.Protocol == protocol.Meridian && n.Rings != nil {
			member := coord.Member{
				ID:          m.SendID,
				LatencyMs:   m.Latency * 2,
				Coordinates: meridianCoordsFromGossip(m.Gossip, m.SendID),
			}
			if err := n.Rings.Insert(member); err != nil {
				n.logInvariant(err)
			}
		}
		return
	}
	now := float64(n.sched.Now())
	news := n.refreshSelfGossip(now)
	n.bus.Send(n.ID, m.SendID, ProbeBody{}, []overlay.News{news}, bus.TypeProbe, true, m)
}

func vivaldiFromGossip(items []overlay.News, id uuid.UUID) (coord.Vivaldi, bool) {
	for _, it := range items {
		if it.ID == id && it.Position.Kind == overlay.PositionVivaldi {
			return it.Position.Vivaldi, true
		}
	}
	return coord.Vivaldi{}, false
}

func peerErrFromGossip(items []overlay.News, id uuid.UUID) float64 {
	for _, it := range items {
		if it.ID == id && it.Position.Kind == overlay.PositionVivaldi {
			return it.Position.Vivaldi.Err
		}
	}
	return 1.0
}

func meridianCoordsFromGossip(items []overlay.News, id uuid.UUID) map[uuid.UUID]float64 {
	for _, it := range items {
		if it.ID == id && it.Position.Kind == overlay.PositionMeridian {
			return it.Position.Meridian
		}
	}
	return nil
}

func (n *Node) handleMeridianPing(m *bus.Message) {
	switch req := m.Body.(type) {
	case MeridianPingRequest:
		n.onMeridianPingRequest(m, req)
	case MeridianPingResponse:
		n.onMeridianPingResponse(req)
	}
}
