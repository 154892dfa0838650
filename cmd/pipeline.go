package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/zalepa/bmtcstats/analysis"
	"github.com/zalepa/bmtcstats/chart"
	"github.com/zalepa/bmtcstats/table"
)

// loadCSV reads and cleans one CSV file.
func loadCSV(path string, strict bool) (*table.RawTable, *table.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return runPipeline(f, strict)
}

// runPipeline parses r and runs the cleaning pipeline from scratch.
func runPipeline(r io.Reader, strict bool) (*table.RawTable, *table.Result, error) {
	raw, err := table.ReadCSV(r)
	if err != nil {
		return nil, nil, err
	}
	res, err := table.Clean(raw, table.SelectOptions{Strict: strict})
	if err != nil {
		return raw, nil, err
	}
	return raw, res, nil
}

func printWarnings(w io.Writer, res *table.Result) {
	for _, line := range res.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", line)
	}
}

// resolveColumns fills in the analysed column and the hypothesis pair. An
// empty column defaults to the first category and an empty X or Y to
// analysis.DefaultPair. Named columns must exist in t.
func resolveColumns(t *table.CleanedTable, column, x, y string) (chart.Columns, error) {
	cats := t.Categories()
	dx, dy := analysis.DefaultPair(cats)
	cols := chart.Columns{Column: column, X: x, Y: y}
	if cols.Column == "" && len(cats) > 0 {
		cols.Column = cats[0]
	}
	if cols.X == "" {
		cols.X = dx
	}
	if cols.Y == "" {
		cols.Y = dy
	}
	for _, name := range []string{cols.Column, cols.X, cols.Y} {
		if name != "" && !t.HasCategory(name) {
			return cols, fmt.Errorf("%w %q (have %v)", analysis.ErrUnknownColumn, name, cats)
		}
	}
	return cols, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
