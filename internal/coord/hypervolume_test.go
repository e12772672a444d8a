package coord_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/coord"
)

func TestHypervolumeZeroForDegenerateRows(t *testing.T) {
	// Every row identical to the last: centering subtracts it to all zeros,
	// so the spanned volume collapses to zero.
	m := mat.NewDense(3, 3, []float64{
		1, 2, 3,
		1, 2, 3,
		1, 2, 3,
	})
	vol, err := coord.Hypervolume(m)
	require.NoError(t, err)
	assert.InDelta(t, 0, vol, 1e-9)
}

func TestHypervolumeFiniteForDistinctRows(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		0, 0, 0,
		4, 0, 0,
		0, 3, 0,
	})
	vol, err := coord.Hypervolume(m)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(vol) || math.IsInf(vol, 0))
	assert.GreaterOrEqual(t, vol, 0.0)
}

func TestHypervolumeIsNonNegative(t *testing.T) {
	m := mat.NewDense(4, 4, []float64{
		1, 5, 2, 8,
		2, 1, 7, 3,
		9, 3, 0, 4,
		0, 0, 6, 1,
	})
	vol, err := coord.Hypervolume(m)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, vol, 0.0)
}
