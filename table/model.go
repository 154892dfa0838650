package table

// CategoryColumn is the header of the free-text column that labels each raw
// row with its revenue category.
const CategoryColumn = "Factors"

// IndexName labels the row index of a CleanedTable.
const IndexName = "Year"

// DefaultCategories lists the canonical revenue categories, in output order.
var DefaultCategories = []string{
	"Through Sale of Tickets",
	"Monthly pass",
	"Daily pass",
	"Student pass",
	"Others",
	"Total",
}

// Cell is one raw CSV value. Valid is false for empty and NA-style cells.
type Cell struct {
	Value string `json:"value"`
	Valid bool   `json:"valid"`
}

// Row maps column names to cell values for one raw row.
type Row map[string]Cell

func (r Row) clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Selected is the raw row chosen for a canonical category.
type Selected struct {
	Category string `json:"category"`
	Index    int    `json:"index"` // zero-based position in the raw table
	Label    string `json:"label"` // original Factors text
	Row      Row    `json:"-"`
}

// Ambiguity records a category whose match token hit more than one row. Rows
// holds every matching index; the first is the one that was selected.
type Ambiguity struct {
	Category string `json:"category"`
	Rows     []int  `json:"rows"`
}

// Overlap records a raw row that was selected for more than one category.
type Overlap struct {
	Row        int      `json:"row"`
	Categories []string `json:"categories"`
}

// Selection is the output of the row selector.
type Selection struct {
	Columns   []string    `json:"columns"`
	Rows      []Selected  `json:"rows"`
	Missing   []string    `json:"missing,omitempty"`
	Ambiguous []Ambiguity `json:"ambiguous,omitempty"`
	Shared    []Overlap   `json:"shared,omitempty"`
}

// Categories returns the matched category names in selection order.
func (s *Selection) Categories() []string {
	names := make([]string, len(s.Rows))
	for i, r := range s.Rows {
		names[i] = r.Category
	}
	return names
}
