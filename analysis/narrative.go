package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zalepa/bmtcstats/table"
)

// RecoveryYear is the first fiscal year of the post-pandemic trend reading.
const RecoveryYear = 2021

// Narrate writes the closing observations for a cleaned table: coverage,
// the post-2021 trend of column, the skewness of each category, and, when
// test is non-nil, the reading of the hypothesis test.
func Narrate(t *table.CleanedTable, column string, test *PearsonResult) []string {
	var lines []string
	years := t.Years()

	if len(years) == 0 {
		lines = append(lines, "Data consistency: no year had a parseable amount; the cleaned table is empty.")
	} else {
		lines = append(lines, fmt.Sprintf(
			"Data consistency: commas and unparseable cells were cleaned, leaving %d years from %s to %s.",
			len(years), years[0], years[len(years)-1]))
	}

	if col, ok := t.Column(column); ok {
		lines = append(lines, trendLine(column, years, col))
	}

	var readings []string
	for _, s := range Summarize(t) {
		if math.IsNaN(s.Skew) {
			continue
		}
		readings = append(readings, fmt.Sprintf("%s %.2f (%s)", s.Column, s.Skew, skewReading(s.Skew)))
	}
	if len(readings) > 0 {
		lines = append(lines, "Normality: skewness "+strings.Join(readings, "; ")+".")
	}

	if test != nil {
		reading := "marginally significant or not significant"
		if test.Significant() {
			reading = "significant"
		}
		lines = append(lines, fmt.Sprintf(
			"Hypothesis: for %s and %s, the p-value of %.4f indicates that the relationship is %s.",
			test.X, test.Y, test.P, reading))
	}
	return lines
}

func trendLine(column string, years []string, col []float64) string {
	first, last := -1, -1
	for i, y := range years {
		start, ok := StartYear(y)
		if !ok || start < RecoveryYear {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last {
		return fmt.Sprintf("Trend: not enough years from %d onward to read a trend for %s.", RecoveryYear, column)
	}

	from, to := col[first], col[last]
	dir := "stayed flat"
	switch {
	case to > from:
		dir = "rose"
	case to < from:
		dir = "fell"
	}
	change := ""
	if from != 0 {
		change = fmt.Sprintf(" (%+.1f%%)", (to-from)/math.Abs(from)*100)
	}
	return fmt.Sprintf("Trend: %s %s from %.2f in %s to %.2f in %s%s.",
		column, dir, from, years[first], to, years[last], change)
}

func skewReading(s float64) string {
	side := "right"
	if s < 0 {
		side = "left"
	}
	switch a := math.Abs(s); {
	case a < 0.5:
		return "approximately symmetric"
	case a < 1:
		return "moderately " + side + "-skewed"
	default:
		return "highly " + side + "-skewed"
	}
}

// StartYear extracts the first four-digit year in a label such as
// "2018-19" or "FY 2021".
func StartYear(label string) (int, bool) {
	for i := 0; i+4 <= len(label); i++ {
		s := label[i : i+4]
		if !allDigits(s) {
			continue
		}
		if i+4 < len(label) && isDigit(label[i+4]) {
			continue
		}
		if i > 0 && isDigit(label[i-1]) {
			continue
		}
		y, err := strconv.Atoi(s)
		if err == nil {
			return y, true
		}
	}
	return 0, false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
