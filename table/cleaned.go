package table

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// CleanedTable is the numeric year × category table produced by Reshape.
// Values are amounts in lakhs; every cell is finite.
type CleanedTable struct {
	years      []string
	categories []string
	values     [][]float64 // values[year][category]
}

// NewCleaned builds a CleanedTable from already-clean data. It rejects
// ragged rows and non-finite values.
func NewCleaned(years, categories []string, values [][]float64) (*CleanedTable, error) {
	if len(values) != len(years) {
		return nil, fmt.Errorf("table: %d value rows for %d years", len(values), len(years))
	}
	t := &CleanedTable{
		years:      append([]string(nil), years...),
		categories: append([]string(nil), categories...),
		values:     make([][]float64, len(values)),
	}
	for i, row := range values {
		if len(row) != len(categories) {
			return nil, fmt.Errorf("table: year %q has %d values for %d categories", years[i], len(row), len(categories))
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("table: year %q has non-finite value", years[i])
			}
		}
		t.values[i] = append([]float64(nil), row...)
	}
	return t, nil
}

// Years returns the row labels in order.
func (t *CleanedTable) Years() []string { return append([]string(nil), t.years...) }

// Categories returns the column labels in order.
func (t *CleanedTable) Categories() []string { return append([]string(nil), t.categories...) }

// Dims returns the number of years and categories.
func (t *CleanedTable) Dims() (years, categories int) { return len(t.years), len(t.categories) }

// Empty reports whether the table has no cells.
func (t *CleanedTable) Empty() bool { return len(t.years) == 0 || len(t.categories) == 0 }

// HasCategory reports whether name is one of the columns.
func (t *CleanedTable) HasCategory(name string) bool {
	return t.categoryIndex(name) >= 0
}

func (t *CleanedTable) categoryIndex(name string) int {
	for i, c := range t.categories {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of one category's values, in year order.
func (t *CleanedTable) Column(name string) ([]float64, bool) {
	j := t.categoryIndex(name)
	if j < 0 {
		return nil, false
	}
	col := make([]float64, len(t.values))
	for i, row := range t.values {
		col[i] = row[j]
	}
	return col, true
}

// Value returns the amount for a year and category.
func (t *CleanedTable) Value(year, category string) (float64, bool) {
	j := t.categoryIndex(category)
	if j < 0 {
		return 0, false
	}
	for i, y := range t.years {
		if y == year {
			return t.values[i][j], true
		}
	}
	return 0, false
}

// Equal reports whether two tables have the same labels and bit-identical
// values.
func (t *CleanedTable) Equal(o *CleanedTable) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.years) != len(o.years) || len(t.categories) != len(o.categories) {
		return false
	}
	for i := range t.years {
		if t.years[i] != o.years[i] {
			return false
		}
	}
	for j := range t.categories {
		if t.categories[j] != o.categories[j] {
			return false
		}
	}
	for i, row := range t.values {
		for j, v := range row {
			if math.Float64bits(v) != math.Float64bits(o.values[i][j]) {
				return false
			}
		}
	}
	return true
}

// Records renders the table as CSV records with a "Year" header column.
func (t *CleanedTable) Records() [][]string {
	header := append([]string{IndexName}, t.categories...)
	recs := [][]string{header}
	for i, y := range t.years {
		rec := make([]string, 0, len(t.categories)+1)
		rec = append(rec, y)
		for _, v := range t.values[i] {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		}
		recs = append(recs, rec)
	}
	return recs
}

type jsonRow struct {
	Year   string             `json:"year"`
	Values map[string]float64 `json:"values"`
}

type jsonTable struct {
	Index      string    `json:"index"`
	Categories []string  `json:"categories"`
	Rows       []jsonRow `json:"rows"`
}

// MarshalJSON encodes the table as {"index","categories","rows"}.
func (t *CleanedTable) MarshalJSON() ([]byte, error) {
	jt := jsonTable{Index: IndexName, Categories: t.Categories(), Rows: make([]jsonRow, len(t.years))}
	for i, y := range t.years {
		vals := make(map[string]float64, len(t.categories))
		for j, c := range t.categories {
			vals[c] = t.values[i][j]
		}
		jt.Rows[i] = jsonRow{Year: y, Values: vals}
	}
	return json.Marshal(jt)
}
