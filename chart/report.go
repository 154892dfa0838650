package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/zalepa/bmtcstats/analysis"
	"github.com/zalepa/bmtcstats/table"
)

const (
	pageWidth  = 8.5 * vg.Inch
	pageHeight = 11 * vg.Inch
	pdfMargin  = 0.75 * vg.Inch
)

// Report is everything drawn into the PDF report. Test is nil when the
// hypothesis test could not run; TestErr then says why.
type Report struct {
	Title     string
	Table     *table.CleanedTable
	Columns   Columns
	Summaries []analysis.Summary
	Test      *analysis.PearsonResult
	TestErr   error
	Warnings  []string
	Narrative []string
}

// PageCount is the number of pages WriteReport emits: the summary page and
// one page per chart kind.
func (r Report) PageCount() int { return 1 + len(Kinds) }

var captions = map[Kind]string{
	Trend:     "Line chart: year (X) against revenue (Y).",
	Box:       "Used to identify outliers such as the 2020 pandemic dip.",
	Histogram: "Frequency of yearly amounts.",
	QQ:        "If the dots follow the red line, the data is normally distributed.",
	Heatmap:   "Pairwise Pearson correlation of every category.",
	Scatter:   "Least-squares regression line through the yearly pairs.",
	Violin:    "Kernel density of both variables; white dot marks the median.",
}

// WriteReport renders r as a letter-size PDF. A chart that cannot be drawn
// (for example a Q-Q plot of a single year) gets a page stating the reason,
// so the page count is always PageCount.
func WriteReport(w io.Writer, r Report) error {
	// The Liberation font in vgpdf has no em or en dash glyph.
	title := strings.NewReplacer("\u2014", "-", "\u2013", "-").Replace(r.Title)

	c := vgpdf.New(pageWidth, pageHeight)
	drawSummaryPage(c, title, r)

	for _, kind := range Kinds {
		c.NextPage()
		p, err := Build(r.Table, kind, r.Columns)
		drawChartPage(c, p, err, captions[kind])
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

const (
	summaryRowHeight = 0.30 * vg.Inch
	nameColWidth     = 1.9 * vg.Inch
	statColWidth     = 0.62 * vg.Inch
	bodyFontSize     = 9
	wrapChars        = 100
)

var statHeaders = []string{"Mean", "Median", "Trim 10%", "Std Dev", "MAD", "IQR"}

func statValues(s analysis.Summary) []float64 {
	return []float64{s.Mean, s.Median, s.TrimmedMean, s.StdDev, s.MAD, s.IQR}
}

func drawSummaryPage(c *vgpdf.Canvas, title string, r Report) {
	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)
	usableW := pageWidth - 2*pdfMargin
	muted := color.Gray{Y: 100}
	rule := color.Gray{Y: 180}

	y := area.Max.Y - vg.Points(14)
	fillText(area, title, vg.Points(14), area.Min.X, y, color.Black)
	y -= 0.3 * vg.Inch

	years := r.Table.Years()
	coverage := "No year has a parseable amount."
	if len(years) > 0 {
		coverage = fmt.Sprintf("%s to %s (%d years), amounts in lakhs", years[0], years[len(years)-1], len(years))
	}
	fillText(area, coverage, vg.Points(10), area.Min.X, y, muted)
	y -= 0.25 * vg.Inch

	// Leave room for the summary table below the warnings.
	reserve := vg.Length(len(r.Summaries)+4) * summaryRowHeight
	shown := 0
	for _, wline := range r.Warnings {
		if y < area.Min.Y+reserve {
			fillText(area, fmt.Sprintf("... %d more warnings", len(r.Warnings)-shown), vg.Points(bodyFontSize), area.Min.X, y, muted)
			y -= vg.Points(12)
			break
		}
		shown++
		fillText(area, "Warning: "+wline, vg.Points(bodyFontSize), area.Min.X, y, color.RGBA{R: 170, G: 60, A: 255})
		y -= vg.Points(12)
	}

	y -= 0.15 * vg.Inch
	fillText(area, "Summary Statistics", vg.Points(12), area.Min.X, y, color.Black)
	y -= 0.3 * vg.Inch

	fillText(area, "Category", vg.Points(bodyFontSize), area.Min.X, y, muted)
	for i, h := range statHeaders {
		fillText(area, h, vg.Points(bodyFontSize), area.Min.X+nameColWidth+vg.Length(i)*statColWidth, y, muted)
	}
	sparkX := area.Min.X + nameColWidth + vg.Length(len(statHeaders))*statColWidth
	fillText(area, "Trend", vg.Points(bodyFontSize), sparkX, y, muted)
	y -= vg.Points(6)
	strokeHLine(area, area.Min.X, area.Min.X+usableW, y, rule)

	for _, s := range r.Summaries {
		rowTop := y
		ty := rowTop - summaryRowHeight*0.65
		fillText(area, s.Column, vg.Points(bodyFontSize), area.Min.X, ty, color.Black)
		for i, v := range statValues(s) {
			fillText(area, formatStat(v), vg.Points(bodyFontSize), area.Min.X+nameColWidth+vg.Length(i)*statColWidth, ty, color.Black)
		}

		col, _ := r.Table.Column(s.Column)
		sparkArea := draw.Canvas{
			Canvas: area.Canvas,
			Rectangle: vg.Rectangle{
				Min: vg.Point{X: sparkX, Y: rowTop - summaryRowHeight + vg.Points(2)},
				Max: vg.Point{X: area.Min.X + usableW, Y: rowTop - vg.Points(1)},
			},
		}
		drawSparkline(sparkArea, col)
		y -= summaryRowHeight
	}
	strokeHLine(area, area.Min.X, area.Min.X+usableW, y-vg.Points(2), rule)
	y -= 0.4 * vg.Inch

	fillText(area, "Null Hypothesis Testing", vg.Points(12), area.Min.X, y, color.Black)
	y -= 0.25 * vg.Inch
	var hyp []string
	switch {
	case r.Test != nil:
		hyp = []string{
			fmt.Sprintf("H0: no significant linear relationship between %s and %s.", r.Test.X, r.Test.Y),
			fmt.Sprintf("Correlation coefficient (r): %.4f   P-value: %.4f", r.Test.R, r.Test.P),
			"Conclusion: " + r.Test.Conclusion(),
		}
	case analysis.IsDegenerate(r.TestErr):
		hyp = []string{"Please choose two different variables."}
	case r.TestErr != nil:
		hyp = []string{"Test not run: " + r.TestErr.Error()}
	}
	for _, l := range hyp {
		fillText(area, l, vg.Points(bodyFontSize), area.Min.X, y, color.Black)
		y -= vg.Points(13)
	}

	if len(r.Narrative) == 0 {
		return
	}
	y -= 0.25 * vg.Inch
	fillText(area, "Conclusion", vg.Points(12), area.Min.X, y, color.Black)
	y -= 0.25 * vg.Inch
	for _, para := range r.Narrative {
		for _, l := range wrap(para, wrapChars) {
			if y < area.Min.Y {
				return
			}
			fillText(area, l, vg.Points(bodyFontSize), area.Min.X, y, color.Black)
			y -= vg.Points(12)
		}
		y -= vg.Points(4)
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "- -"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// wrap breaks s into lines of at most n characters at spaces.
func wrap(s string, n int) []string {
	var lines []string
	var cur strings.Builder
	for _, word := range strings.Fields(s) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > n {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func drawSparkline(c draw.Canvas, vals []float64) {
	if len(vals) < 2 {
		return
	}
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = color.Transparent

	line, err := plotter.NewLine(pts)
	if err != nil {
		return
	}
	line.Color = chartBlue
	line.Width = vg.Points(1.5)
	p.Add(line)

	p.X.Min = 0
	p.X.Max = float64(len(vals) - 1)
	minY, maxY := minMax(vals)
	pad := (maxY - minY) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = minY - pad
	p.Y.Max = maxY + pad

	p.Draw(c)
}

// drawChartPage draws p in the upper part of the page with a caption below.
// When p is nil the page carries err instead.
func drawChartPage(c *vgpdf.Canvas, p *plot.Plot, err error, caption string) {
	dc := draw.New(c)
	area := draw.Crop(dc, pdfMargin, -pdfMargin, pdfMargin, -pdfMargin)

	if p == nil {
		msg := "Chart unavailable"
		if err != nil {
			msg += ": " + err.Error()
		}
		fillText(area, msg, vg.Points(11), area.Min.X, area.Max.Y-vg.Points(14), color.Gray{Y: 80})
		return
	}

	chartH := (pageWidth - 2*pdfMargin) * 0.8
	chartArea := draw.Crop(area, 0, 0, area.Max.Y-area.Min.Y-chartH, 0)
	p.Draw(chartArea)
	fillText(area, caption, vg.Points(10), area.Min.X, chartArea.Min.Y-0.3*vg.Inch, color.Gray{Y: 100})
}

func fillText(c draw.Canvas, txt string, size vg.Length, x, y vg.Length, clr color.Color) {
	sty := draw.TextStyle{
		Color:   clr,
		Font:    plot.DefaultFont,
		Handler: plot.DefaultTextHandler,
	}
	sty.Font.Size = size
	c.FillText(sty, vg.Point{X: x, Y: y}, txt)
}

func strokeHLine(c draw.Canvas, x0, x1, y vg.Length, clr color.Color) {
	c.StrokeLine2(draw.LineStyle{
		Color: clr,
		Width: vg.Points(0.5),
	}, x0, y, x1, y)
}
