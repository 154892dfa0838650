package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatisticMedians(t *testing.T) {
	m := orderStatisticMedians(5)
	require.Len(t, m, 5)
	last := math.Pow(0.5, 0.2)
	assert.InDelta(t, 1-last, m[0], 1e-12)
	assert.InDelta(t, (2-0.3175)/5.365, m[1], 1e-12)
	assert.InDelta(t, 0.5, m[2], 1e-12)
	assert.InDelta(t, last, m[4], 1e-12)
}

func TestNormalQQ(t *testing.T) {
	q, err := NormalQQ([]float64{3, 1, 2})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3}, q.Ordered)
	assert.InDelta(t, 0, q.Theoretical[1], 1e-12)
	assert.InDelta(t, -q.Theoretical[0], q.Theoretical[2], 1e-12)
	assert.InDelta(t, 2, q.Intercept, 1e-9)
	assert.InDelta(t, 1/q.Theoretical[2], q.Slope, 1e-9)
	assert.InDelta(t, 1, q.R, 1e-9)
}

func TestNormalQQ_Edges(t *testing.T) {
	_, err := NormalQQ([]float64{1})
	assert.True(t, errors.Is(err, ErrTooFewObservations))

	q, err := NormalQQ([]float64{5, 5, 5, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0, q.Slope, 1e-12)
	assert.InDelta(t, 5, q.Intercept, 1e-12)
	assert.True(t, math.IsNaN(q.R))
}

func TestLinearFit(t *testing.T) {
	f, err := LinearFit([]float64{1, 2, 3, 4}, []float64{3, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 1, f.Intercept, 1e-9)
	assert.InDelta(t, 2, f.Slope, 1e-9)
	assert.InDelta(t, 1, f.RSquared, 1e-9)
	assert.InDelta(t, 21, f.At(10), 1e-9)

	_, err = LinearFit([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, ErrConstantInput))

	_, err = LinearFit([]float64{1}, []float64{1})
	assert.True(t, errors.Is(err, ErrTooFewObservations))
}

func TestKDE(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	d, err := KDE(xs)
	require.NoError(t, err)
	require.Len(t, d.Points, DensityGridSize)
	require.Len(t, d.Values, DensityGridSize)

	sd := math.Sqrt(7.5)
	assert.InDelta(t, math.Pow(9, -0.2)*sd, d.Bandwidth, 1e-9)
	assert.InDelta(t, 1-2*d.Bandwidth, d.Points[0], 1e-9)
	assert.InDelta(t, 9+2*d.Bandwidth, d.Points[len(d.Points)-1], 1e-9)

	// Trapezoidal integral over the grid: nearly all of the mass.
	var area float64
	for i := 1; i < len(d.Points); i++ {
		area += (d.Points[i] - d.Points[i-1]) * (d.Values[i] + d.Values[i-1]) / 2
	}
	assert.InDelta(t, 1, area, 0.05)

	mid := d.Values[len(d.Values)/2]
	assert.Greater(t, mid, d.Values[0])
	assert.InDelta(t, d.Max(), mid, d.Max()*0.05)
}

func TestKDE_Edges(t *testing.T) {
	_, err := KDE([]float64{1})
	assert.True(t, errors.Is(err, ErrTooFewObservations))

	d, err := KDE([]float64{4, 4, 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, d.Points)
	assert.Equal(t, 0.0, d.Bandwidth)
}
