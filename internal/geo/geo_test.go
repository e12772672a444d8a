package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
)

func TestDist(t *testing.T) {
	a := geo.Position{X: 0, Y: 0}
	b := geo.Position{X: 3, Y: 4}
	assert.Equal(t, 5.0, a.Dist(b))
}

func TestLerp(t *testing.T) {
	a := geo.Position{X: 0, Y: 0}
	b := geo.Position{X: 10, Y: 20}
	mid := a.Lerp(b, 0.5)
	assert.Equal(t, geo.Position{X: 5, Y: 10}, mid)
	assert.Equal(t, a, a.Lerp(b, 0))
	assert.Equal(t, b, a.Lerp(b, 1))
}

func TestRectContains(t *testing.T) {
	r := geo.Rect{XMin: 0, XMax: 10, YMin: 0, YMax: 10}
	assert.True(t, r.Contains(geo.Position{X: 5, Y: 5}))
	assert.True(t, r.Contains(geo.Position{X: 0, Y: 0}))
	assert.False(t, r.Contains(geo.Position{X: 11, Y: 5}))
}

func TestNearest(t *testing.T) {
	towers := []geo.Tower{
		{Position: geo.Position{X: 0, Y: 0}},
		{Position: geo.Position{X: 100, Y: 100}},
	}
	idx, dist := geo.Nearest(geo.Position{X: 1, Y: 1}, towers)
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 1.4142, dist, 0.001)
}
