// Package overlay implements gossip news propagation: last-writer-wins by
// timestamp, self-news refreshed on every emission, carrying a
// heterogeneous virtual-position snapshot.
package overlay

import (
	"github.com/google/uuid"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
)

// PositionKind tags which virtual-position variant a News item carries.
type PositionKind int

const (
	PositionNone PositionKind = iota
	PositionVivaldi
	PositionMeridian
)

// VirtualPosition is the tagged union {None | Vivaldi(coord) | Meridian(ring-set snapshot)}.
type VirtualPosition struct {
	Kind     PositionKind
	Vivaldi  coord.Vivaldi
	Meridian map[uuid.UUID]float64 // flattened ring-set latency vector, as gossiped
}

// News is one gossip entry: {id, position, timestamp, type, available_slots}.
type News struct {
	ID             uuid.UUID
	Position       VirtualPosition
	Timestamp      float64
	Type           string // "node" or "client", informational
	AvailableSlots int
}

// Store holds the last-writer-wins gossip table for one participant.
type Store struct {
	entries map[uuid.UUID]News
}

// NewStore returns an empty gossip store.
func NewStore() *Store {
	return &Store{entries: make(map[uuid.UUID]News)}
}

// Merge applies incoming news: add if unknown, replace iff incoming
// Timestamp is strictly newer. Idempotent: merging the same news twice is a
// no-op the second time.
func (s *Store) Merge(n News) {
	existing, ok := s.entries[n.ID]
	if !ok || n.Timestamp > existing.Timestamp {
		s.entries[n.ID] = n
	}
}

// MergeAll merges a batch, e.g. the Gossip field piggy-backed on a message.
func (s *Store) MergeAll(items []News) {
	for _, n := range items {
		s.Merge(n)
	}
}

// Get returns the stored entry for id, if any.
func (s *Store) Get(id uuid.UUID) (News, bool) {
	n, ok := s.entries[id]
	return n, ok
}

// All returns a snapshot slice of every stored entry. Order is unspecified.
func (s *Store) All() []News {
	out := make([]News, 0, len(s.entries))
	for _, n := range s.entries {
		out = append(out, n)
	}
	return out
}

// RefreshSelf always overwrites the self entry, regardless of timestamp
// ordering.
func (s *Store) RefreshSelf(n News) {
	s.entries[n.ID] = n
}

// Snapshot returns the current gossip table as a slice, suitable for
// piggy-backing on an outbound message.
func (s *Store) Snapshot() []News {
	return s.All()
}
