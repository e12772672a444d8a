package bus

import (
	"fmt"
	"log/slog"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/idgen"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/overlay"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

// Inbox is the narrow interface a participant exposes so the bus can
// deliver to it without holding a live reference: messages carry identifiers, never live object references.
type Inbox interface {
	Deliver(m *Message)
}

// LatencyFunc computes the send_id->rec_id link latency at send time.
type LatencyFunc func(sendID, recID uuid.UUID) float64

// Bus schedules latency-delayed delivery and records causal prev_msg
// chains.
type Bus struct {
	sched   *simtime.Scheduler
	latency LatencyFunc
	inboxes map[uuid.UUID]Inbox
	outHist map[uuid.UUID][]*Message
	seen    *bloom.BloomFilter // fingerprints of sent messages; gates only the debug log line, never delivery
	seq     int
	logger  *slog.Logger
	sent    int
}

// New creates a bus bound to sched, using latencyFn to price every hop.
func New(sched *simtime.Scheduler, latencyFn LatencyFunc, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		sched:   sched,
		latency: latencyFn,
		inboxes: make(map[uuid.UUID]Inbox),
		outHist: make(map[uuid.UUID][]*Message),
		seen:    bloom.NewWithEstimates(100000, 0.001),
		logger:  logger.With("component", "bus"),
	}
}

// Register associates id with the Inbox that receives messages sent to it.
func (b *Bus) Register(id uuid.UUID, inbox Inbox) {
	b.inboxes[id] = inbox
}

// TotalSent returns the count of messages sent so far, for progress lines.
func (b *Bus) TotalSent() int { return b.sent }

// Send allocates a fresh Message, computes its latency, and spawns a
// one-shot delivery event that appends it to the recipient's inbox at
// send_timestamp + latency. It returns the message so the
// sender can append it to its own out-history.
func (b *Bus) Send(sendID, recID uuid.UUID, body any, gossip []overlay.News, typ Type, response bool, prev *Message) *Message {
	b.seq++
	m := &Message{
		ID:        idgen.New(int64(b.seq), idgen.Kind("msg"), b.seq),
		SendID:    sendID,
		RecID:     recID,
		Timestamp: float64(b.sched.Now()),
		Body:      body,
		Type:      typ,
		Response:  response,
		PrevMsg:   prev,
		Gossip:    gossip,
	}
	m.Latency = b.latency(sendID, recID)
	if m.Latency < 0 {
		m.Latency = 0
	}

	b.outHist[sendID] = append(b.outHist[sendID], m)
	b.sent++

	if !b.seen.TestAndAdd(fingerprint(m)) {
		b.logger.Debug("scheduling delivery", "msg", m.ID, "from", sendID, "to", recID, "latency", m.Latency)
	}

	b.sched.After(simtime.Time(m.Latency), func(s *simtime.Scheduler) {
		if inbox, ok := b.inboxes[recID]; ok {
			inbox.Deliver(m)
		}
	})

	return m
}

// OutHistory returns the monotonically growing out-history for id.
func (b *Bus) OutHistory(id uuid.UUID) []*Message {
	return b.outHist[id]
}

// AttachOpt records a message's ground-truth optimal choice
// "opt_node, opt_latency — the theoretically optimal choice for this
// request". Only the sender can know this (it requires the omniscient
// fleet view), so it is attached after Send rather than computed by the
// bus itself; probe and node-to-node traffic never call this and keep
// HasOpt false.
func (b *Bus) AttachOpt(m *Message, optNode uuid.UUID, optLatency float64) {
	m.OptNode = &optNode
	m.OptLatency = optLatency
	m.HasOpt = true
}

func fingerprint(m *Message) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s|%d", m.ID, m.SendID, m.RecID, m.Type))
}
