// Package analysis computes the descriptive statistics, correlation,
// hypothesis test and distribution diagnostics shown for a cleaned revenue
// table.
package analysis

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/zalepa/bmtcstats/table"
)

// TrimProportion is the share cut from each tail for the trimmed mean.
const TrimProportion = 0.1

// Summary holds the descriptive statistics of one category column.
// Statistics that are undefined for the sample size are NaN.
type Summary struct {
	Column      string  `json:"column"`
	Count       int     `json:"count"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	TrimmedMean float64 `json:"trimmedMean"`
	StdDev      float64 `json:"stdDev"`
	MAD         float64 `json:"mad"`
	IQR         float64 `json:"iqr"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Skew        float64 `json:"skew"`
	ExKurtosis  float64 `json:"exKurtosis"`
}

// Describe computes the summary of a single column. The standard deviation
// is the sample (n-1) estimate; MAD is the mean absolute deviation around
// the mean.
func Describe(column string, xs []float64) (Summary, error) {
	s := Summary{Column: column, Count: len(xs)}
	if len(xs) == 0 {
		return s, ErrTooFewObservations
	}

	data := stats.Float64Data(xs)
	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	s.StdDev = math.NaN()
	if len(xs) > 1 {
		s.StdDev, _ = stats.StandardDeviationSample(data)
	}

	s.TrimmedMean = TrimMean(xs, TrimProportion)
	s.MAD = MeanAbsDeviation(xs)
	s.IQR = IQR(xs)
	s.Skew = skew(xs, s.StdDev)
	s.ExKurtosis = exKurtosis(xs, s.StdDev)
	return s, nil
}

// Summarize describes every column of t, in column order. An empty table
// yields summaries with Count 0 and NaN statistics.
func Summarize(t *table.CleanedTable) []Summary {
	cats := t.Categories()
	out := make([]Summary, 0, len(cats))
	for _, c := range cats {
		col, _ := t.Column(c)
		s, err := Describe(c, col)
		if err != nil {
			s = nanSummary(c)
		}
		out = append(out, s)
	}
	return out
}

func nanSummary(column string) Summary {
	nan := math.NaN()
	return Summary{
		Column: column, Mean: nan, Median: nan, TrimmedMean: nan, StdDev: nan,
		MAD: nan, IQR: nan, Min: nan, Max: nan, Skew: nan, ExKurtosis: nan,
	}
}

// TrimMean returns the mean after cutting int(prop*n) values from each end
// of the sorted data.
func TrimMean(xs []float64, prop float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := sortedCopy(xs)
	cut := int(prop * float64(len(sorted)))
	if 2*cut >= len(sorted) {
		return math.NaN()
	}
	return stat.Mean(sorted[cut:len(sorted)-cut], nil)
}

// MeanAbsDeviation returns the mean of |x - mean(x)|.
func MeanAbsDeviation(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	m := stat.Mean(xs, nil)
	var sum float64
	for _, v := range xs {
		sum += math.Abs(v - m)
	}
	return sum / float64(len(xs))
}

// Quantile returns the p-quantile of xs, linearly interpolating between the
// two nearest order statistics at position (n-1)*p.
func Quantile(xs []float64, p float64) float64 {
	if len(xs) == 0 || p < 0 || p > 1 {
		return math.NaN()
	}
	return sortedQuantile(sortedCopy(xs), p)
}

func sortedQuantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// IQR returns the interquartile range Q3 - Q1.
func IQR(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := sortedCopy(xs)
	return sortedQuantile(sorted, 0.75) - sortedQuantile(sorted, 0.25)
}

// skew is the adjusted Fisher-Pearson coefficient. Constant data has zero
// skew.
func skew(xs []float64, sd float64) float64 {
	if len(xs) < 3 {
		return math.NaN()
	}
	if sd == 0 {
		return 0
	}
	return stat.Skew(xs, nil)
}

func exKurtosis(xs []float64, sd float64) float64 {
	if len(xs) < 4 {
		return math.NaN()
	}
	if sd == 0 {
		return 0
	}
	return stat.ExKurtosis(xs, nil)
}

func sortedCopy(xs []float64) []float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return s
}
