package scenario_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/config"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/input"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/scenario"
)

func testMap() config.Map {
	return config.Map{XMin: 0, XMax: 100, YMin: 0, YMax: 100}
}

func TestTowersReturnsNineGridPoints(t *testing.T) {
	towers := scenario.Towers(testMap())
	require.Len(t, towers, 9)
	for _, tw := range towers {
		assert.True(t, testMap().XMin <= tw.Position.X && tw.Position.X <= testMap().XMax)
	}
}

func TestSelectNodesAreaAllKeepsEverything(t *testing.T) {
	locations := []input.NodeLocation{
		{Position: geo.Position{X: 10, Y: 10}, Antennas: 2},
		{Position: geo.Position{X: 90, Y: 90}, Antennas: 3},
	}
	sim := config.Simulation{AreaSelection: config.AreaAll}
	got := scenario.SelectNodes(locations, sim, testMap(), config.Nodes{})
	assert.Len(t, got, 2)
}

func TestSelectNodesAreaCenterFiltersByRadius(t *testing.T) {
	locations := []input.NodeLocation{
		{Position: geo.Position{X: 50, Y: 50}, Antennas: 2}, // at center
		{Position: geo.Position{X: 0, Y: 0}, Antennas: 3},   // far corner
	}
	sim := config.Simulation{AreaSelection: config.AreaCenter, Area: 10}
	got := scenario.SelectNodes(locations, sim, testMap(), config.Nodes{})
	require.Len(t, got, 1)
	assert.Equal(t, geo.Position{X: 50, Y: 50}, got[0].Position)
}

func TestSelectNodesWidensToMinNodes(t *testing.T) {
	locations := []input.NodeLocation{
		{Position: geo.Position{X: 50, Y: 50}, Antennas: 2},
		{Position: geo.Position{X: 0, Y: 0}, Antennas: 3},
		{Position: geo.Position{X: 99, Y: 99}, Antennas: 1},
	}
	sim := config.Simulation{AreaSelection: config.AreaCenter, Area: 1}
	got := scenario.SelectNodes(locations, sim, testMap(), config.Nodes{MinNodes: 2})
	assert.Len(t, got, 2)
}

func TestSelectNodesTrimsToMaxNodes(t *testing.T) {
	locations := []input.NodeLocation{
		{Position: geo.Position{X: 50, Y: 50}, Antennas: 2},
		{Position: geo.Position{X: 51, Y: 51}, Antennas: 2},
		{Position: geo.Position{X: 52, Y: 52}, Antennas: 2},
	}
	sim := config.Simulation{AreaSelection: config.AreaAll}
	max := 1
	got := scenario.SelectNodes(locations, sim, testMap(), config.Nodes{MaxNodes: &max})
	assert.Len(t, got, 1)
}

func TestSelectClientsAppliesRatioAgainstTotalSlots(t *testing.T) {
	plans := make([]input.TripPlan, 10)
	for i := range plans {
		plans[i] = input.TripPlan{PersonID: "p", Legs: []input.Leg{{Position: geo.Position{X: 50, Y: 50}}}}
	}
	sim := config.Simulation{AreaSelection: config.AreaAll}
	got := scenario.SelectClients(plans, sim, testMap(), config.Clients{ClientRatio: 0.2}, 10)
	assert.Len(t, got, 2)
}

func TestSelectClientsAreaRandomIsDeterministic(t *testing.T) {
	plans := make([]input.TripPlan, 20)
	for i := range plans {
		plans[i] = input.TripPlan{PersonID: "p", Legs: []input.Leg{{Position: geo.Position{X: 50, Y: 50}}}}
	}
	sim := config.Simulation{AreaSelection: config.AreaRandom, Seed: 7}
	first := scenario.SelectClients(plans, sim, testMap(), config.Clients{}, 1000)
	second := scenario.SelectClients(plans, sim, testMap(), config.Clients{}, 1000)
	assert.Equal(t, first, second)
}
