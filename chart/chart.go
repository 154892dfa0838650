// Package chart draws the trend, distribution, correlation and relationship
// charts for a cleaned revenue table, as PNG images or as a multi-page PDF
// report.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/zalepa/bmtcstats/analysis"
	"github.com/zalepa/bmtcstats/table"
)

// AmountLabel is the axis label for revenue amounts.
const AmountLabel = "Amount (Lakhs)"

var (
	chartBlue   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	lightGreen  = color.RGBA{R: 144, G: 238, B: 144, A: 255}
	purple      = color.RGBA{R: 128, G: 0, B: 128, A: 255}
	fitRed      = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	violinFills = []color.Color{
		color.RGBA{R: 31, G: 119, B: 180, A: 200},
		color.RGBA{R: 255, G: 127, B: 14, A: 200},
	}
)

// Kind names one of the available charts.
type Kind string

const (
	Trend     Kind = "trend"
	Box       Kind = "box"
	Histogram Kind = "hist"
	QQ        Kind = "qq"
	Heatmap   Kind = "heatmap"
	Scatter   Kind = "scatter"
	Violin    Kind = "violin"
)

// Kinds lists every chart in report order.
var Kinds = []Kind{Trend, Box, Histogram, QQ, Heatmap, Scatter, Violin}

// ErrUnknownKind is returned by ParseKind for an unrecognised chart name.
var ErrUnknownKind = errors.New("chart: unknown kind")

// ParseKind validates a chart name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Columns picks the columns a chart is drawn for: Column for the
// single-variable charts, X and Y for scatter and violin.
type Columns struct {
	Column string `json:"column"`
	X      string `json:"x"`
	Y      string `json:"y"`
}

// Build draws one chart of t.
func Build(t *table.CleanedTable, kind Kind, cols Columns) (*plot.Plot, error) {
	switch kind {
	case Heatmap:
		return NewHeatmap(analysis.CorrelationMatrix(t))
	case Scatter, Violin:
		if cols.X == cols.Y {
			return nil, &analysis.DegenerateSelectionError{Column: cols.X}
		}
		xs, err := column(t, cols.X)
		if err != nil {
			return nil, err
		}
		ys, err := column(t, cols.Y)
		if err != nil {
			return nil, err
		}
		if kind == Scatter {
			return NewScatter(xs, ys, cols.X, cols.Y)
		}
		return NewViolin([]string{cols.X, cols.Y}, [][]float64{xs, ys})
	}

	vals, err := column(t, cols.Column)
	if err != nil {
		return nil, err
	}
	switch kind {
	case Trend:
		return NewTrend(t.Years(), vals, cols.Column)
	case Box:
		return NewBox(vals, cols.Column)
	case Histogram:
		return NewHistogram(vals, cols.Column)
	case QQ:
		q, err := analysis.NormalQQ(vals)
		if err != nil {
			return nil, err
		}
		return NewQQ(q, cols.Column)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
}

func column(t *table.CleanedTable, name string) ([]float64, error) {
	vals, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", analysis.ErrUnknownColumn, name)
	}
	return vals, nil
}

// WritePNG renders p as a PNG image of the given size.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.BackgroundColor = color.White
	return p
}

// NewTrend draws the year-by-year line chart of one column.
func NewTrend(years []string, vals []float64, name string) (*plot.Plot, error) {
	if len(vals) == 0 {
		return nil, analysis.ErrTooFewObservations
	}
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}

	p := newPlot("Trend: " + name)
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = chartBlue
	line.Width = vg.Points(2)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Color = chartBlue
	scatter.Radius = vg.Points(3)
	scatter.Shape = draw.CircleGlyph{}

	p.Add(line, scatter, plotter.NewGrid())

	p.X.Label.Text = table.IndexName
	p.X.Tick.Marker = yearTicks(years)
	p.X.Min = -0.5
	p.X.Max = float64(len(years)) - 0.5
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	p.Y.Label.Text = AmountLabel
	p.Y.Tick.Marker = amountTicks{}
	return p, nil
}

// NewBox draws a box plot of one column.
func NewBox(vals []float64, name string) (*plot.Plot, error) {
	if len(vals) == 0 {
		return nil, analysis.ErrTooFewObservations
	}
	p := newPlot("Box Plot: " + name)
	box, err := plotter.NewBoxPlot(vg.Points(60), 0, plotter.Values(vals))
	if err != nil {
		return nil, err
	}
	box.FillColor = lightGreen
	p.Add(box)
	p.NominalX(name)
	p.Y.Label.Text = AmountLabel
	p.Y.Tick.Marker = amountTicks{}
	return p, nil
}

// SturgesBins returns ceil(log2 n) + 1.
func SturgesBins(n int) int {
	if n < 1 {
		return 1
	}
	return int(math.Ceil(math.Log2(float64(n)))) + 1
}

// NewHistogram draws the frequency histogram of one column.
func NewHistogram(vals []float64, name string) (*plot.Plot, error) {
	if len(vals) == 0 {
		return nil, analysis.ErrTooFewObservations
	}
	p := newPlot("Histogram: " + name)
	h, err := plotter.NewHist(plotter.Values(vals), SturgesBins(len(vals)))
	if err != nil {
		return nil, err
	}
	h.FillColor = chartBlue
	p.Add(h)
	p.X.Label.Text = AmountLabel
	p.X.Tick.Marker = amountTicks{}
	p.Y.Label.Text = "Frequency"
	return p, nil
}

// NewQQ draws the normal probability plot with its least-squares line.
func NewQQ(q analysis.QQ, name string) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(q.Ordered))
	for i := range q.Ordered {
		pts[i] = plotter.XY{X: q.Theoretical[i], Y: q.Ordered[i]}
	}

	p := newPlot("Q-Q Plot: " + name)
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Color = chartBlue
	scatter.Shape = draw.CircleGlyph{}

	fit := plotter.NewFunction(func(x float64) float64 { return q.Intercept + q.Slope*x })
	fit.Color = fitRed
	fit.Width = vg.Points(1.5)

	p.Add(scatter, fit, plotter.NewGrid())
	p.X.Label.Text = "Theoretical quantiles"
	p.Y.Label.Text = "Ordered values"
	p.Y.Tick.Marker = amountTicks{}
	if !math.IsNaN(q.R) {
		p.Legend.Add(fmt.Sprintf("R^2 = %.4f", q.R*q.R), fit)
		p.Legend.Top = true
		p.Legend.Left = true
	}
	return p, nil
}

// NewHeatmap draws the correlation matrix with a cool-warm diverging
// palette and two-decimal annotations. Row 0 is drawn at the top.
func NewHeatmap(m analysis.Matrix) (*plot.Plot, error) {
	n := len(m.Labels)
	if n == 0 {
		return nil, analysis.ErrTooFewObservations
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	grid := corrGrid{m: m}
	h := plotter.NewHeatMap(grid, cmap.Palette(255))
	h.Min, h.Max = -1, 1
	h.NaN = color.Gray{Y: 220}

	var labels plotter.XYLabels
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := grid.Z(c, r)
			txt := "nan"
			if !math.IsNaN(v) {
				txt = fmt.Sprintf("%.2f", v)
			}
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			labels.Labels = append(labels.Labels, txt)
		}
	}
	annot, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	for i := range annot.TextStyle {
		annot.TextStyle[i].XAlign = draw.XCenter
		annot.TextStyle[i].YAlign = draw.YCenter
	}

	p := newPlot("Correlation Matrix")
	p.Add(h, annot)
	p.NominalX(m.Labels...)
	rev := make([]string, n)
	for i, l := range m.Labels {
		rev[n-1-i] = l
	}
	p.NominalY(rev...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	return p, nil
}

type corrGrid struct{ m analysis.Matrix }

func (g corrGrid) Dims() (c, r int) { return len(g.m.Labels), len(g.m.Labels) }
func (g corrGrid) Z(c, r int) float64 { return g.m.At(len(g.m.Labels)-1-r, c) }
func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// NewScatter draws y against x with the fitted regression line. The line is
// omitted when x is constant.
func NewScatter(xs, ys []float64, xName, yName string) (*plot.Plot, error) {
	if len(xs) == 0 {
		return nil, analysis.ErrTooFewObservations
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}

	p := newPlot("Scatter Plot with Regression Line")
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.Color = purple
	scatter.Shape = draw.CircleGlyph{}
	scatter.Radius = vg.Points(3)
	p.Add(scatter, plotter.NewGrid())

	if fit, err := analysis.LinearFit(xs, ys); err == nil {
		lo, hi := minMax(xs)
		line, err := plotter.NewLine(plotter.XYs{{X: lo, Y: fit.At(lo)}, {X: hi, Y: fit.At(hi)}})
		if err != nil {
			return nil, err
		}
		line.Color = purple
		line.Width = vg.Points(2)
		p.Add(line)
	}

	p.X.Label.Text = xName + " (Lakhs)"
	p.Y.Label.Text = yName + " (Lakhs)"
	p.X.Tick.Marker = amountTicks{}
	p.Y.Tick.Marker = amountTicks{}
	return p, nil
}

// NewViolin draws mirrored kernel density outlines for each column side by
// side, with the median marked.
func NewViolin(names []string, cols [][]float64) (*plot.Plot, error) {
	p := newPlot("Violin Plot (Density & Distribution)")
	for i, vals := range cols {
		d, err := analysis.KDE(vals)
		if err != nil {
			return nil, fmt.Errorf("violin %s: %w", names[i], err)
		}
		loc := float64(i)
		if err := addViolin(p, loc, d, violinFills[i%len(violinFills)]); err != nil {
			return nil, err
		}

		med := analysis.Quantile(vals, 0.5)
		q1, q3 := analysis.Quantile(vals, 0.25), analysis.Quantile(vals, 0.75)
		iqr, err := plotter.NewLine(plotter.XYs{{X: loc, Y: q1}, {X: loc, Y: q3}})
		if err != nil {
			return nil, err
		}
		iqr.Width = vg.Points(4)
		m, err := plotter.NewScatter(plotter.XYs{{X: loc, Y: med}})
		if err != nil {
			return nil, err
		}
		m.Color = color.White
		m.Shape = draw.CircleGlyph{}
		p.Add(iqr, m)
	}
	p.NominalX(names...)
	p.Y.Label.Text = AmountLabel
	p.Y.Tick.Marker = amountTicks{}
	return p, nil
}

const violinHalfWidth = 0.4

func addViolin(p *plot.Plot, loc float64, d analysis.Density, fill color.Color) error {
	peak := d.Max()
	if len(d.Points) < 2 || peak == 0 {
		// Zero bandwidth: a flat bar at the single value.
		y := d.Points[0]
		bar, err := plotter.NewLine(plotter.XYs{{X: loc - violinHalfWidth, Y: y}, {X: loc + violinHalfWidth, Y: y}})
		if err != nil {
			return err
		}
		bar.Color = fill
		bar.Width = vg.Points(2)
		p.Add(bar)
		return nil
	}

	ring := make(plotter.XYs, 0, 2*len(d.Points))
	for i, y := range d.Points {
		ring = append(ring, plotter.XY{X: loc + d.Values[i]/peak*violinHalfWidth, Y: y})
	}
	for i := len(d.Points) - 1; i >= 0; i-- {
		ring = append(ring, plotter.XY{X: loc - d.Values[i]/peak*violinHalfWidth, Y: d.Points[i]})
	}
	poly, err := plotter.NewPolygon(ring)
	if err != nil {
		return err
	}
	poly.Color = fill
	p.Add(poly)
	return nil
}

func minMax(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
