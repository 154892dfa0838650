package table

import (
	"math"
	"strconv"
	"strings"
)

// IsYearColumn reports whether a raw column holds a yearly amount: the name
// mentions "20" or "19" and is not a "bifurcation" breakdown. The check is
// case-sensitive.
func IsYearColumn(name string) bool {
	if strings.Contains(name, "bifurcation") {
		return false
	}
	return strings.Contains(name, "20") || strings.Contains(name, "19")
}

// ParseAmount converts a raw cell to a number. Thousands separators are
// stripped first ("1,00,000" → 100000). Missing cells, unparseable text and
// non-finite results yield NaN.
func ParseAmount(c Cell) float64 {
	if !c.Valid {
		return math.NaN()
	}
	s := strings.TrimSpace(strings.ReplaceAll(c.Value, ",", ""))
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN()
	}
	return v
}

// Reshape turns a selection into a year × category table. Cells are parsed
// to NaN on failure, years with no parsed value are dropped, and the
// remaining NaN cells are filled with zero.
func Reshape(sel *Selection) *CleanedTable {
	var years []string
	for _, c := range sel.Columns {
		if IsYearColumn(c) {
			years = append(years, c)
		}
	}

	t := &CleanedTable{categories: sel.Categories()}
	for _, year := range years {
		row := make([]float64, len(sel.Rows))
		allMissing := true
		for j, s := range sel.Rows {
			row[j] = ParseAmount(s.Row[year])
			if !math.IsNaN(row[j]) {
				allMissing = false
			}
		}
		if allMissing {
			continue
		}
		t.years = append(t.years, year)
		t.values = append(t.values, row)
	}

	for _, row := range t.values {
		for j, v := range row {
			if math.IsNaN(v) {
				row[j] = 0
			}
		}
	}
	return t
}
