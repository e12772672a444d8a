// Package bus implements message delivery: fingerprinting, latency-delayed
// scheduling, and causal prev_msg chains.
package bus

import (
	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
)

// Type enumerates the four message kinds.
type Type int

const (
	TypeTask Type = iota + 1
	TypeDiscoveryRequest
	TypeProbe
	TypeMeridianPing
)

func (t Type) String() string {
	switch t {
	case TypeTask:
		return "task"
	case TypeDiscoveryRequest:
		return "discovery-request"
	case TypeProbe:
		return "probe"
	case TypeMeridianPing:
		return "meridian-ping"
	default:
		return "unknown"
	}
}

// Message is not modified after Send returns, except that the sender may
// stamp its opt fields through Bus.AttachOpt.
type Message struct {
	ID        uuid.UUID
	SendID    uuid.UUID
	RecID     uuid.UUID
	Timestamp float64 // send timestamp, virtual seconds
	Body      any
	Type      Type
	Response  bool
	PrevMsg   *Message // back-edge to the request this answers, or nil
	Gossip    []overlay.News
	Latency   float64 // computed, seconds, >= 0

	// OptNode/OptLatency are the theoretically optimal choice for this
	// request — baseline ground truth consumed only by metrics, never by
	// protocols. nil/zero for node-to-node and probe traffic.
	OptNode    *uuid.UUID
	OptLatency float64
	HasOpt     bool
}

// DerivedOpt computes the message's opt_node/opt_latency fields. For
// responses these are copied from the originating request; callers supply
// the originating request's opt fields when constructing a response.
func DerivedOpt(optNode *uuid.UUID, optLatency float64) (n *uuid.UUID, l float64, ok bool) {
	if optNode == nil {
		return nil, 0, false
	}
	return optNode, optLatency, true
}
