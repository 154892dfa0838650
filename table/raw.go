package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// naValues are the cell spellings treated as missing on load. The list
// follows the usual spreadsheet/pandas conventions so an exported workbook
// with "#N/A" or "null" placeholders reads the same as an empty cell.
var naValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawTable is an immutable, ordered view of one uploaded CSV. Every column
// is kept as text; numeric interpretation happens in Reshape.
type RawTable struct {
	columns []string
	rows    []Row
}

// ReadCSV parses a CSV stream with a header row into a RawTable. Short rows
// are padded with missing cells; rows longer than the header are rejected.
// Stray quotes inside unquoted fields are kept as literal text.
func ReadCSV(r io.Reader) (*RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return FromRecords(records)
}

// FromRecords builds a RawTable from a header record followed by data
// records. A header with no data rows yields a table with no rows.
func FromRecords(records [][]string) (*RawTable, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, ErrEmptyInput
	}
	if len(records) == 1 {
		// gota needs a data row to name the columns.
		t, err := FromRecords([][]string{records[0], make([]string, len(records[0]))})
		if err != nil {
			return nil, err
		}
		t.rows = nil
		return t, nil
	}
	width := len(records[0])
	padded := make([][]string, len(records))
	for i, rec := range records {
		if len(rec) > width {
			return nil, fmt.Errorf("parse csv: line %d has %d fields, header has %d", i+1, len(rec), width)
		}
		row := make([]string, width)
		copy(row, rec)
		padded[i] = row
	}

	df := dataframe.LoadRecords(padded,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load table: %w", df.Err)
	}
	return fromDataFrame(df), nil
}

func fromDataFrame(df dataframe.DataFrame) *RawTable {
	names := df.Names()
	rows := make([]Row, df.Nrow())
	for i := range rows {
		rows[i] = make(Row, len(names))
	}
	for _, name := range names {
		col := df.Col(name)
		for i := 0; i < col.Len(); i++ {
			e := col.Elem(i)
			if e.IsNA() {
				rows[i][name] = Cell{}
				continue
			}
			rows[i][name] = Cell{Value: e.String(), Valid: true}
		}
	}
	return &RawTable{columns: names, rows: rows}
}

// New builds a RawTable directly from column names and rows. Rows are copied;
// columns a row does not mention read as missing.
func New(columns []string, rows []Row) *RawTable {
	t := &RawTable{columns: append([]string(nil), columns...)}
	t.rows = make([]Row, len(rows))
	for i, r := range rows {
		c := make(Row, len(columns))
		for _, name := range columns {
			c[name] = r[name]
		}
		t.rows[i] = c
	}
	return t
}

// Columns returns the column names in file order.
func (t *RawTable) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the header contains name.
func (t *RawTable) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of data rows.
func (t *RawTable) Len() int { return len(t.rows) }

// Row returns a copy of row i.
func (t *RawTable) Row(i int) Row { return t.rows[i].clone() }

// Cell returns the value at row i in column name.
func (t *RawTable) Cell(i int, name string) (Cell, bool) {
	if i < 0 || i >= len(t.rows) {
		return Cell{}, false
	}
	c, ok := t.rows[i][name]
	return c, ok
}

// Head returns up to n rows as records aligned with Columns. Missing cells
// are rendered as empty strings.
func (t *RawTable) Head(n int) [][]string {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		rec := make([]string, len(t.columns))
		for j, name := range t.columns {
			rec[j] = t.rows[i][name].Value
		}
		out[i] = rec
	}
	return out
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// MissingCounts returns the number of missing cells per column, in column
// order.
func (t *RawTable) MissingCounts() []ColumnCount {
	counts := make([]ColumnCount, len(t.columns))
	for j, name := range t.columns {
		counts[j].Column = name
		for _, r := range t.rows {
			if !r[name].Valid {
				counts[j].Count++
			}
		}
	}
	return counts
}
