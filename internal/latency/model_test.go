package latency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/latency"
)

func TestNodeBandwidthDegradesWithLoad(t *testing.T) {
	assert.Equal(t, 1.0, latency.NodeBandwidth(0, 10))
	full := latency.NodeBandwidth(5, 10)
	empty := latency.NodeBandwidth(10, 10)
	assert.Less(t, full, 1.0)
	assert.Greater(t, full, empty)
	assert.InDelta(t, latency.SLAFloor, empty, 1e-9)
}

func TestNodeBandwidthNeverBelowFloor(t *testing.T) {
	assert.Equal(t, latency.SLAFloor, latency.NodeBandwidth(100, 10))
}

func TestNodeBandwidthZeroSlots(t *testing.T) {
	assert.Equal(t, latency.SLAFloor, latency.NodeBandwidth(0, 0))
}

func TestHopsIncreasesWithDistance(t *testing.T) {
	near := latency.Hops(10, 1.0, 1)
	far := latency.Hops(10000, 1.0, 1)
	assert.Greater(t, far, near)
}

func TestClientNodeIsSymmetricInHopOrder(t *testing.T) {
	a := latency.ClientNode(100, 200, 0.8, 1)
	b := latency.ClientNode(200, 100, 0.8, 1)
	assert.InDelta(t, a, b, 1e-9)
}

func TestNodeNodeUsesSlowerBandwidthAndHigherTier(t *testing.T) {
	slow := latency.NodeNode(1000, 0.1, 1.0, 1, 1)
	fast := latency.NodeNode(1000, 1.0, 1.0, 1, 1)
	assert.Greater(t, slow, fast)

	lowTier := latency.NodeNode(1000, 1.0, 1.0, 0, 0)
	highTier := latency.NodeNode(1000, 1.0, 1.0, 0, 5)
	assert.Greater(t, highTier, lowTier)
}
