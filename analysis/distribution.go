package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// QQ is a normal probability plot: the ordered sample against the normal
// quantiles of the uniform order-statistic medians, with a least-squares
// reference line.
type QQ struct {
	Theoretical []float64 `json:"theoretical"`
	Ordered     []float64 `json:"ordered"`
	Slope       float64   `json:"slope"`
	Intercept   float64   `json:"intercept"`
	R           float64   `json:"r"`
}

// NormalQQ builds the Q-Q data for xs. At least two observations are needed
// for the reference line. R is NaN for constant data.
func NormalQQ(xs []float64) (QQ, error) {
	if len(xs) < 2 {
		return QQ{}, ErrTooFewObservations
	}
	q := QQ{Ordered: sortedCopy(xs)}
	medians := orderStatisticMedians(len(xs))
	q.Theoretical = make([]float64, len(medians))
	for i, m := range medians {
		q.Theoretical[i] = distuv.UnitNormal.Quantile(m)
	}
	q.Intercept, q.Slope = stat.LinearRegression(q.Theoretical, q.Ordered, nil, false)
	q.R = math.NaN()
	if !isConstant(q.Ordered) {
		q.R = stat.Correlation(q.Theoretical, q.Ordered, nil)
	}
	return q, nil
}

// orderStatisticMedians returns Filliben's estimate of the medians of the
// uniform order statistics for a sample of size n.
func orderStatisticMedians(n int) []float64 {
	m := make([]float64, n)
	last := math.Pow(0.5, 1/float64(n))
	m[n-1] = last
	for i := 2; i < n; i++ {
		m[i-1] = (float64(i) - 0.3175) / (float64(n) + 0.365)
	}
	m[0] = 1 - last
	return m
}

// Fit is a least-squares line y = Intercept + Slope*x.
type Fit struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	RSquared  float64 `json:"rSquared"`
}

// At evaluates the fitted line.
func (f Fit) At(x float64) float64 { return f.Intercept + f.Slope*x }

// LinearFit regresses y on x.
func LinearFit(x, y []float64) (Fit, error) {
	if len(x) != len(y) {
		return Fit{}, fmt.Errorf("analysis: fit on %d and %d values", len(x), len(y))
	}
	if len(x) < 2 {
		return Fit{}, ErrTooFewObservations
	}
	if isConstant(x) {
		return Fit{}, ErrConstantInput
	}
	var f Fit
	f.Intercept, f.Slope = stat.LinearRegression(x, y, nil, false)
	f.RSquared = math.NaN()
	if !isConstant(y) {
		f.RSquared = stat.RSquared(x, y, nil, f.Intercept, f.Slope)
	}
	return f, nil
}

// DensityGridSize is the number of points a Density is evaluated on.
const DensityGridSize = 100

// Density is a Gaussian kernel density estimate evaluated on a regular grid.
type Density struct {
	Points    []float64 `json:"points"`
	Values    []float64 `json:"values"`
	Bandwidth float64   `json:"bandwidth"`
}

// Max returns the largest density value.
func (d Density) Max() float64 {
	var m float64
	for _, v := range d.Values {
		m = math.Max(m, v)
	}
	return m
}

// KDE estimates the density of xs using Scott's rule for the bandwidth
// (n^(-1/5) times the sample standard deviation). The grid extends two
// bandwidths beyond the data. Constant data has zero bandwidth and yields a
// single point with density 1.
func KDE(xs []float64) (Density, error) {
	if len(xs) < 2 {
		return Density{}, ErrTooFewObservations
	}
	sd, err := stats.StandardDeviationSample(xs)
	if err != nil {
		return Density{}, err
	}
	bw := math.Pow(float64(len(xs)), -0.2) * sd
	if bw == 0 {
		return Density{Points: []float64{xs[0]}, Values: []float64{1}}, nil
	}

	lo, _ := stats.Min(xs)
	hi, _ := stats.Max(xs)
	lo -= 2 * bw
	hi += 2 * bw
	step := (hi - lo) / float64(DensityGridSize-1)

	d := Density{
		Points:    make([]float64, DensityGridSize),
		Values:    make([]float64, DensityGridSize),
		Bandwidth: bw,
	}
	for i := range d.Points {
		p := lo + float64(i)*step
		var sum float64
		for _, x := range xs {
			sum += distuv.Normal{Mu: x, Sigma: bw}.Prob(p)
		}
		d.Points[i] = p
		d.Values[i] = sum / float64(len(xs))
	}
	return d, nil
}
