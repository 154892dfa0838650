package table

import "fmt"

// Result is the output of one pipeline run.
type Result struct {
	Table     *CleanedTable
	Selection *Selection
}

// Warnings renders the non-fatal findings of the selector as readable lines:
// categories with no matching row, categories matched by several rows, and
// rows claimed by more than one category.
func (r *Result) Warnings() []string {
	var out []string
	for _, c := range r.Selection.Missing {
		out = append(out, fmt.Sprintf("no row matched category %q; it is omitted", c))
	}
	for _, a := range r.Selection.Ambiguous {
		out = append(out, fmt.Sprintf("category %q matched %d rows; using row %d", a.Category, len(a.Rows), a.Rows[0]+1))
	}
	for _, o := range r.Selection.Shared {
		out = append(out, fmt.Sprintf("row %d was selected for %d categories: %v", o.Row+1, len(o.Categories), o.Categories))
	}
	return out
}

// Clean runs the row selector and the reshaper. It is a pure function of its
// inputs: raw is never modified and repeated calls return equal tables.
func Clean(raw *RawTable, opts SelectOptions) (*Result, error) {
	sel, err := Select(raw, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Table: Reshape(sel), Selection: sel}, nil
}
