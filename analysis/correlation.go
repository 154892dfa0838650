package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zalepa/bmtcstats/table"
)

// Alpha is the significance threshold of the hypothesis test.
const Alpha = 0.05

// Matrix is a square matrix of pairwise Pearson coefficients. Entries that
// involve a constant column are NaN.
type Matrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}

// At returns the coefficient for columns i and j.
func (m Matrix) At(i, j int) float64 { return m.Values[i][j] }

// CorrelationMatrix computes the pairwise Pearson correlation of every column
// of t.
func CorrelationMatrix(t *table.CleanedTable) Matrix {
	labels := t.Categories()
	cols := make([][]float64, len(labels))
	varies := make([]bool, len(labels))
	for i, c := range labels {
		cols[i], _ = t.Column(c)
		varies[i] = !isConstant(cols[i])
	}

	m := Matrix{Labels: labels, Values: make([][]float64, len(labels))}
	for i := range labels {
		m.Values[i] = make([]float64, len(labels))
	}
	for i := range labels {
		for j := i; j < len(labels); j++ {
			v := math.NaN()
			switch {
			case !varies[i] || !varies[j]:
			case i == j:
				v = 1
			default:
				v = clampUnit(stat.Correlation(cols[i], cols[j], nil))
			}
			m.Values[i][j] = v
			m.Values[j][i] = v
		}
	}
	return m
}

// Pearson returns the Pearson correlation coefficient of x and y and the
// two-sided p-value of the null hypothesis that they are uncorrelated.
func Pearson(x, y []float64) (r, p float64, err error) {
	if len(x) != len(y) {
		return math.NaN(), math.NaN(), fmt.Errorf("analysis: pearson on %d and %d values", len(x), len(y))
	}
	n := len(x)
	if n < 2 {
		return math.NaN(), math.NaN(), ErrTooFewObservations
	}
	if isConstant(x) || isConstant(y) {
		return math.NaN(), math.NaN(), ErrConstantInput
	}

	r, err = stats.Pearson(x, y)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	r = clampUnit(r)
	return r, pearsonPValue(r, n), nil
}

// pearsonPValue uses t = r*sqrt((n-2)/(1-r²)) against Student's t with n-2
// degrees of freedom.
func pearsonPValue(r float64, n int) float64 {
	if n == 2 {
		return 1
	}
	if math.Abs(r) == 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

// PearsonResult is the outcome of a hypothesis test on one pair of columns.
type PearsonResult struct {
	X string  `json:"x"`
	Y string  `json:"y"`
	N int     `json:"n"`
	R float64 `json:"r"`
	P float64 `json:"p"`
}

// Significant reports whether the null hypothesis is rejected at Alpha.
func (r PearsonResult) Significant() bool { return r.P < Alpha }

// Conclusion is the one-line reading of the test.
func (r PearsonResult) Conclusion() string {
	if r.Significant() {
		return "Reject H0. Statistically significant relationship at 5% level."
	}
	return "Fail to Reject H0. Relationship is not statistically significant (p > 0.05)."
}

// TestPair runs the Pearson test of H0 "no linear relationship" between
// columns x and y of t. Choosing the same column twice returns a
// *DegenerateSelectionError without running the test.
func TestPair(t *table.CleanedTable, x, y string) (PearsonResult, error) {
	res := PearsonResult{X: x, Y: y, R: math.NaN(), P: math.NaN()}
	if x == y {
		return res, &DegenerateSelectionError{Column: x}
	}
	xs, ok := t.Column(x)
	if !ok {
		return res, unknownColumn(x)
	}
	ys, ok := t.Column(y)
	if !ok {
		return res, unknownColumn(y)
	}
	res.N = len(xs)

	r, p, err := Pearson(xs, ys)
	if err != nil {
		return res, fmt.Errorf("pearson %s vs %s: %w", x, y, err)
	}
	res.R, res.P = r, p
	return res, nil
}

// DefaultPair picks the initial X and Y columns: the third and sixth
// categories, clamped to the columns present. When clamping makes them
// coincide, X moves to the second-to-last column. With a single column
// X and Y coincide and TestPair will refuse them.
func DefaultPair(categories []string) (x, y string) {
	if len(categories) == 0 {
		return "", ""
	}
	last := len(categories) - 1
	x, y = categories[min(2, last)], categories[min(5, last)]
	if x == y && last > 0 {
		x = categories[last-1]
	}
	return x, y
}

func isConstant(xs []float64) bool {
	if len(xs) == 0 {
		return true
	}
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
