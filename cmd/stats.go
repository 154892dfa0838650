package cmd

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/zalepa/bmtcstats/analysis"
	"github.com/zalepa/bmtcstats/chart"
	"github.com/zalepa/bmtcstats/table"
)

// PreviewRows is the number of raw rows shown before cleaning.
const PreviewRows = 5

// Stats implements the "stats" subcommand: print the full statistical
// report for one CSV to the terminal.
func Stats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	column := fs.String("column", "", "category to analyse (default: first category)")
	x := fs.String("x", "", "independent variable for the hypothesis test (default: third category)")
	y := fs.String("y", "", "dependent variable for the hypothesis test (default: sixth category)")
	strict := fs.Bool("strict", false, "require category labels to equal the category name")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bmtcstats stats <input.csv> [--column C] [--x X] [--y Y] [--strict]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(fs, args))

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	raw, res, err := loadCSV(fs.Arg(0), *strict)
	if err != nil {
		fatal("%v", err)
	}
	printWarnings(os.Stderr, res)

	cols, err := resolveColumns(res.Table, *column, *x, *y)
	if err != nil {
		fatal("%v", err)
	}
	writeStatsReport(os.Stdout, raw, res.Table, cols)
}

func writeStatsReport(w io.Writer, raw *table.RawTable, t *table.CleanedTable, cols chart.Columns) {
	heading(w, "1. Data Preview & Inconsistency Check")
	writePreview(w, raw)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Missing values:")
	for _, mc := range raw.MissingCounts() {
		fmt.Fprintf(w, "  %s %d\n", padRight(mc.Column, 30), mc.Count)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Cleaned & Transposed Dataset (Lakhs):")
	writeCleaned(w, t)

	if t.Empty() {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "No year has a parseable amount; nothing to analyse.")
		return
	}

	heading(w, "2. Summary Statistics")
	writeSummaries(w, t, analysis.Summarize(t))

	heading(w, "3. Specific Factor Analysis (Trend & Normality): "+cols.Column)
	vals, _ := t.Column(cols.Column)
	renderChart(w, "Trend: "+cols.Column, t.Years(), vals)
	fmt.Fprintln(w)
	writeBox(w, vals)
	if q, err := analysis.NormalQQ(vals); err == nil {
		fmt.Fprintf(w, "Q-Q fit: slope %s, intercept %s", formatStat(q.Slope), formatStat(q.Intercept))
		if !math.IsNaN(q.R) {
			fmt.Fprintf(w, ", R² %s", formatStat(q.R*q.R))
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "Q-Q plot unavailable: %v\n", err)
	}

	heading(w, "4. Correlation Matrix")
	writeMatrix(w, analysis.CorrelationMatrix(t))

	heading(w, "5. Null Hypothesis Testing")
	fmt.Fprintln(w, "H0: there is no significant linear relationship between these factors.")
	fmt.Fprintln(w, "Ha: there is a significant linear relationship.")
	fmt.Fprintf(w, "X = %s, Y = %s\n\n", cols.X, cols.Y)
	res, err := analysis.TestPair(t, cols.X, cols.Y)
	var test *analysis.PearsonResult
	switch {
	case analysis.IsDegenerate(err):
		fmt.Fprintln(w, "Please choose two different variables.")
	case err != nil:
		fmt.Fprintf(w, "Test not run: %v\n", err)
	default:
		test = &res
		fmt.Fprintf(w, "Correlation Coefficient (r): %.4f\n", res.R)
		fmt.Fprintf(w, "P-Value: %.4f\n", res.P)
		fmt.Fprintf(w, "Conclusion: %s\n", res.Conclusion())
	}

	heading(w, "6. Conclusion")
	for _, line := range analysis.Narrate(t, cols.Column, test) {
		fmt.Fprintf(w, "* %s\n", line)
	}
}

func heading(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", len([]rune(title))))
}

const maxCellWidth = 24

func writePreview(w io.Writer, raw *table.RawTable) {
	cols := raw.Columns()
	rows := raw.Head(PreviewRows)
	widths := make([]int, len(cols))
	for j, c := range cols {
		widths[j] = len([]rune(c))
		for _, r := range rows {
			widths[j] = max(widths[j], len([]rune(r[j])))
		}
		widths[j] = min(widths[j], maxCellWidth)
	}
	line := func(cells []string) {
		parts := make([]string, len(cells))
		for j, s := range cells {
			parts[j] = padRight(truncate(s, widths[j]), widths[j])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(cols)
	for _, r := range rows {
		line(r)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeCleaned(w io.Writer, t *table.CleanedTable) {
	cats := t.Categories()
	fmt.Fprintf(w, "%-10s", table.IndexName)
	for _, c := range cats {
		fmt.Fprintf(w, " %*s", colWidth(c), c)
	}
	fmt.Fprintln(w)
	for _, y := range t.Years() {
		fmt.Fprintf(w, "%-10s", y)
		for _, c := range cats {
			v, _ := t.Value(y, c)
			fmt.Fprintf(w, " %*s", colWidth(c), formatNum(v))
		}
		fmt.Fprintln(w)
	}
}

func colWidth(name string) int { return max(len(name), 12) }

func writeSummaries(w io.Writer, t *table.CleanedTable, sums []analysis.Summary) {
	rows := []struct {
		label string
		value func(analysis.Summary) float64
	}{
		{"Mean", func(s analysis.Summary) float64 { return s.Mean }},
		{"Median", func(s analysis.Summary) float64 { return s.Median }},
		{"Trimmed Mean (10%)", func(s analysis.Summary) float64 { return s.TrimmedMean }},
		{"Std Dev", func(s analysis.Summary) float64 { return s.StdDev }},
		{"MAD", func(s analysis.Summary) float64 { return s.MAD }},
		{"IQR", func(s analysis.Summary) float64 { return s.IQR }},
		{"Min", func(s analysis.Summary) float64 { return s.Min }},
		{"Max", func(s analysis.Summary) float64 { return s.Max }},
		{"Skewness", func(s analysis.Summary) float64 { return s.Skew }},
		{"Excess Kurtosis", func(s analysis.Summary) float64 { return s.ExKurtosis }},
	}

	fmt.Fprintf(w, "%-20s", "")
	for _, s := range sums {
		fmt.Fprintf(w, " %*s", colWidth(s.Column), s.Column)
	}
	fmt.Fprintln(w)
	for _, r := range rows {
		fmt.Fprintf(w, "%-20s", r.label)
		for _, s := range sums {
			fmt.Fprintf(w, " %*s", colWidth(s.Column), formatStat(r.value(s)))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%-20s", "Trend")
	for _, s := range sums {
		vals, _ := t.Column(s.Column)
		fmt.Fprintf(w, " %s", padLeft(sparkline(vals), colWidth(s.Column)))
	}
	fmt.Fprintln(w)
}

// writeBox prints the five-number summary behind the box plot and the
// points beyond 1.5 IQR of the quartiles.
func writeBox(w io.Writer, vals []float64) {
	q1, q3 := analysis.Quantile(vals, 0.25), analysis.Quantile(vals, 0.75)
	lo, hi := q1-1.5*(q3-q1), q3+1.5*(q3-q1)
	var outliers []string
	for _, v := range vals {
		if v < lo || v > hi {
			outliers = append(outliers, formatNum(v))
		}
	}
	s, err := analysis.Describe("", vals)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "Box plot: min %s, Q1 %s, median %s, Q3 %s, max %s\n",
		formatNum(s.Min), formatNum(q1), formatNum(s.Median), formatNum(q3), formatNum(s.Max))
	if len(outliers) > 0 {
		fmt.Fprintf(w, "Outliers: %s\n", strings.Join(outliers, ", "))
	}
	fmt.Fprintf(w, "Sparkline: %s\n", sparkline(vals))
}

func writeMatrix(w io.Writer, m analysis.Matrix) {
	fmt.Fprintf(w, "%-24s", "")
	for _, l := range m.Labels {
		fmt.Fprintf(w, " %*s", colWidth(l), l)
	}
	fmt.Fprintln(w)
	for i, l := range m.Labels {
		fmt.Fprintf(w, "%-24s", l)
		for j := range m.Labels {
			v := m.At(i, j)
			cell := "nan"
			if !math.IsNaN(v) {
				cell = fmt.Sprintf("%.2f", v)
			}
			fmt.Fprintf(w, " %*s", colWidth(m.Labels[j]), cell)
		}
		fmt.Fprintln(w)
	}
}
