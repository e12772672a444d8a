package node

import (
	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

// meridianBeta is the ping-collection window multiplier: a node suspends
// for (2*beta + 1) * d virtual seconds before deciding.
const meridianBeta = 0.5

// meridianDiscover implements the recursive hop: find the target's ring
// in this node's own ring-set, fan out type-4 ping-requests to every
// other primary member of that ring, and suspend to collect responses
// before forwarding or declaring self closest.
func (n *Node) meridianDiscover(m *bus.Message, body DiscoveryBody) {
	if n.Rings == nil {
		n.replyMeridianSelf(body)
		return
	}
	estimate := body.EstimatedLatency
	if estimate <= 0 {
		estimate = m.Latency
	}
	r := n.Rings.RingIndex(estimate)
	ring := n.Rings.Rings[r]

	peers := make([]uuid.UUID, 0, len(ring.Primary))
	for _, mem := range ring.Primary {
		if mem.ID == n.ID {
			continue
		}
		peers = append(peers, mem.ID)
	}
	if len(peers) == 0 {
		n.replyMeridianSelf(body)
		return
	}

	if _, exists := n.meridianPending[body.ClientID]; exists {
		n.logInvariant(simerr.ErrProtocol("meridian_discover", map[string]any{"reason": "search already in flight", "target": body.ClientID}))
		return
	}

	n.meridianPending[body.ClientID] = &pingCollection{
		responses: make(map[uuid.UUID]float64),
		request:   m,
	}
	for _, peerID := range peers {
		n.bus.Send(n.ID, peerID, MeridianPingRequest{
			Requester: n.ID,
			Target:    body.ClientID,
			TargetPos: body.ClientPos,
		}, nil, bus.TypeMeridianPing, false, nil)
	}

	window := simtime.Time((2*meridianBeta + 1) * estimate)
	target := body.ClientID
	n.sched.After(window, func(*simtime.Scheduler) {
		n.resolveMeridianCollection(target)
	})
}

// onMeridianPingRequest is the responder side: participate only while a
// slot remains open type 4.
func (n *Node) onMeridianPingRequest(m *bus.Message, req MeridianPingRequest) {
	if n.AvailableSlots() <= 0 {
		return
	}
	n.meridianAwaits[req.Target] = meridianAwait{Requester: req.Requester, Target: req.Target}
	n.bus.Send(n.ID, req.Target, ProbeBody{}, nil, bus.TypeProbe, false, nil)
}

// handleMeridianProbeResponse recognizes a type-3 response from a client
// this node was asked to probe on another node's behalf, and forwards the
// observed one-way latency to the original requester. Returns true if the
// message was consumed as a Meridian probe-forward.
func (n *Node) handleMeridianProbeResponse(m *bus.Message) bool {
	await, ok := n.meridianAwaits[m.SendID]
	if !ok {
		return false
	}
	delete(n.meridianAwaits, m.SendID)
	n.bus.Send(n.ID, await.Requester, MeridianPingResponse{
		Peer:      n.ID,
		Target:    await.Target,
		LatencyMs: m.Latency,
	}, nil, bus.TypeMeridianPing, true, m)
	return true
}

// onMeridianPingResponse records one peer's reported latency to the
// target, for the requester's open collection.
func (n *Node) onMeridianPingResponse(resp MeridianPingResponse) {
	collection, ok := n.meridianPending[resp.Target]
	if !ok {
		n.logInvariant(simerr.ErrProtocol("meridian_ping_response", map[string]any{"reason": "no open request", "target": resp.Target}))
		return
	}
	collection.responses[resp.Peer] = resp.LatencyMs
}

// resolveMeridianCollection fires when a ping-collection window closes:
// forward to the best-reported peer, or declare self closest if nothing
// came back in time.
func (n *Node) resolveMeridianCollection(target uuid.UUID) {
	collection, ok := n.meridianPending[target]
	if !ok {
		return
	}
	delete(n.meridianPending, target)

	body, ok := collection.request.Body.(DiscoveryBody)
	if !ok {
		return
	}

	bestPeer, bestLatency, found := uuid.UUID{}, 0.0, false
	for peer, lat := range collection.responses {
		if !found || lat < bestLatency {
			bestPeer, bestLatency, found = peer, lat, true
		}
	}
	if !found {
		n.replyMeridianSelf(body)
		return
	}

	forward := body
	forward.EstimatedLatency = bestLatency
	news := n.refreshSelfGossip(float64(n.sched.Now()))
	n.bus.Send(n.ID, bestPeer, forward, []overlay.News{news}, bus.TypeDiscoveryRequest, false, nil)
}

// replyMeridianSelf declares this node the closest reachable and answers
// the client directly.
func (n *Node) replyMeridianSelf(body DiscoveryBody) {
	now := float64(n.sched.Now())
	news := n.refreshSelfGossip(now)
	n.bus.Send(n.ID, body.ClientID, DiscoveryResponse{ChosenNode: n.ID, Found: true}, []overlay.News{news}, bus.TypeDiscoveryRequest, true, nil)
}
