package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/bmtcstats/table"
)

const tol = 1e-9

func TestDescribe(t *testing.T) {
	xs := []float64{100, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	s, err := Describe("Total", xs)
	require.NoError(t, err)

	assert.Equal(t, "Total", s.Column)
	assert.Equal(t, 10, s.Count)
	assert.InDelta(t, 14.5, s.Mean, tol)
	assert.InDelta(t, 5.5, s.Median, tol)
	assert.InDelta(t, 5.5, s.TrimmedMean, tol)
	assert.InDelta(t, 17.1, s.MAD, tol)
	assert.InDelta(t, 4.5, s.IQR, tol)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	assert.Greater(t, s.Skew, 1.0, "one large outlier skews right")
	assert.Equal(t, []float64{100, 1, 2, 3, 4, 5, 6, 7, 8, 9}, xs, "input must not be reordered")
}

func TestDescribe_StdDevIsSample(t *testing.T) {
	s, err := Describe("x", []float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(32.0/7.0), s.StdDev, tol)
}

func TestDescribe_SmallSamples(t *testing.T) {
	_, err := Describe("x", nil)
	assert.True(t, errors.Is(err, ErrTooFewObservations))

	s, err := Describe("x", []float64{42})
	require.NoError(t, err)
	assert.Equal(t, 42.0, s.Mean)
	assert.Equal(t, 42.0, s.TrimmedMean)
	assert.Equal(t, 0.0, s.IQR)
	assert.True(t, math.IsNaN(s.StdDev))
	assert.True(t, math.IsNaN(s.Skew))
	assert.True(t, math.IsNaN(s.ExKurtosis))
}

func TestDescribe_ConstantColumn(t *testing.T) {
	s, err := Describe("x", []float64{0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.StdDev)
	assert.Equal(t, 0.0, s.Skew)
	assert.Equal(t, 0.0, s.ExKurtosis)
}

func TestQuantile(t *testing.T) {
	xs := []float64{4, 1, 3, 2}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 1.75},
		{0.5, 2.5},
		{0.75, 3.25},
		{1, 4},
	}
	for _, tt := range tests {
		got := Quantile(xs, tt.p)
		if math.Abs(got-tt.want) > tol {
			t.Errorf("Quantile(%v, %v) = %v, want %v", xs, tt.p, got, tt.want)
		}
	}
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.True(t, math.IsNaN(Quantile(xs, 1.5)))
}

func TestTrimMean(t *testing.T) {
	tests := []struct {
		xs   []float64
		want float64
	}{
		{[]float64{1, 2, 3}, 2},
		{[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 1000}, 5.5},
		{[]float64{-50, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 500}, 5.5},
	}
	for _, tt := range tests {
		got := TrimMean(tt.xs, TrimProportion)
		if math.Abs(got-tt.want) > tol {
			t.Errorf("TrimMean(%v) = %v, want %v", tt.xs, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	tbl := sampleTable(t)
	got := Summarize(tbl)
	require.Len(t, got, 3)
	assert.Equal(t, "Daily pass", got[0].Column)
	assert.InDelta(t, 25.0, got[0].Mean, tol)

	empty, err := table.NewCleaned(nil, []string{"Total"}, nil)
	require.NoError(t, err)
	sums := Summarize(empty)
	require.Len(t, sums, 1)
	assert.Equal(t, 0, sums[0].Count)
	assert.True(t, math.IsNaN(sums[0].Mean))
}

// sampleTable has a rising Daily pass, a Total that tracks it exactly and a
// constant Others column.
func sampleTable(t *testing.T) *table.CleanedTable {
	t.Helper()
	tbl, err := table.NewCleaned(
		[]string{"2019-20", "2020-21", "2021-22", "2022-23"},
		[]string{"Daily pass", "Others", "Total"},
		[][]float64{
			{10, 5, 25},
			{20, 5, 45},
			{30, 5, 65},
			{40, 5, 85},
		},
	)
	require.NoError(t, err)
	return tbl
}
