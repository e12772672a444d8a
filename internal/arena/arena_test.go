package arena_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/arena"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/bus"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/client"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/idgen"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/input"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/node"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/protocol"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

func buildArena(seed int64) *arena.Arena {
	towers := []geo.Tower{{Position: geo.Position{X: 0, Y: 0}}}
	sched := simtime.New(nil)
	a := arena.New(sched, towers, nil)

	for i := 0; i < 2; i++ {
		n := node.New(node.Config{
			ID:       idgen.New(seed, idgen.KindNode, i),
			Position: geo.Position{X: float64(i * 100), Y: 0},
			Slots:    3,
			HWTier:   1,
			Protocol: protocol.Baseline,
			Towers:   towers,
			Seed:     seed + int64(i),
		}, a.Bus(), sched, nil)
		a.AddNode(n)
	}

	c := client.New(client.Config{
		ID: idgen.New(seed, idgen.KindClient, 0),
		Plan: []input.Leg{
			{Position: geo.Position{X: 0, Y: 0}, TravTime: 0},
			{Position: geo.Position{X: 50, Y: 0}, TravTime: 100},
		},
		Protocol:           protocol.Baseline,
		Towers:             towers,
		Area:               geo.Rect{XMin: -1000, XMax: 1000, YMin: -1000, YMax: 1000},
		Seed:               seed + 100,
		LatencyThreshold:   1,
		RoundtripThreshold: 10,
		TimeoutThreshold:   5,
	}, a.Bus(), sched, nil)
	a.AddClient(c)

	return a
}

func runSummary(seed int64) (discoveries int, tasks int, reconnects int) {
	a := buildArena(seed)
	a.Start()
	a.Run(simtime.Time(5), nil)

	for _, c := range a.Clients() {
		reconnects += c.Reconnections
		for _, m := range c.OutHistory {
			switch m.Type {
			case bus.TypeDiscoveryRequest:
				discoveries++
			case bus.TypeTask:
				tasks++
			}
		}
	}
	return discoveries, tasks, reconnects
}

func TestSameSeedProducesIdenticalOutcome(t *testing.T) {
	d1, t1, r1 := runSummary(7)
	d2, t2, r2 := runSummary(7)
	assert.Equal(t, d1, d2)
	assert.Equal(t, t1, t2)
	assert.Equal(t, r1, r2)
}

func TestClientDiscoversAndReceivesTaskResponses(t *testing.T) {
	a := buildArena(1)
	a.Start()
	a.Run(simtime.Time(5), nil)

	clients := a.Clients()
	require.Len(t, clients, 1)
	c := clients[0]
	assert.True(t, c.HasNode)

	var gotTaskResponse bool
	for _, m := range c.InHistory {
		if m.Type == bus.TypeTask {
			gotTaskResponse = true
		}
	}
	assert.True(t, gotTaskResponse)
}

func TestAllNodeIDsPreservesRegistrationOrder(t *testing.T) {
	towers := []geo.Tower{{Position: geo.Position{}}}
	sched := simtime.New(nil)
	a := arena.New(sched, towers, nil)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id := idgen.New(1, idgen.KindNode, i)
		ids = append(ids, id)
		n := node.New(node.Config{ID: id, Slots: 1, Protocol: protocol.Baseline, Towers: towers}, a.Bus(), sched, nil)
		a.AddNode(n)
	}
	assert.Equal(t, ids, a.AllNodeIDs())
}
