package node

import (
	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
)

// TaskBody is the payload of a type-1 task message.
type TaskBody struct{}

// DiscoveryBody is the payload of a type-2 discovery request/forward.
type DiscoveryBody struct {
	ClientID      uuid.UUID
	ClientPos     geo.Position
	ClientVivaldi *coord.Vivaldi // non-nil under the Vivaldi protocol

	// EstimatedLatency carries the best latency-to-target estimate across a
	// Meridian hop: the receiving hop's own measured latency
	// on the first request, then the forwarding peer's reported ping
	// latency on every subsequent hop. Zero value means "use the bus's
	// measured message latency instead".
	EstimatedLatency float64
}

// DiscoveryResponse is the payload of a type-2 response: the chosen node.
type DiscoveryResponse struct {
	ChosenNode uuid.UUID
	Found      bool
}

// ProbeBody is the payload of a type-3 probe request/response.
type ProbeBody struct{}

// MeridianPingRequest is the payload of a type-4 ping-request: "please
// probe Target on my behalf and report back".
type MeridianPingRequest struct {
	Requester uuid.UUID
	Target    uuid.UUID
	TargetPos geo.Position
}

// MeridianPingResponse is the payload of a type-4 response.
type MeridianPingResponse struct {
	Peer      uuid.UUID
	Target    uuid.UUID
	LatencyMs float64
}
