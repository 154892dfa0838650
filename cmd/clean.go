package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/zalepa/bmtcstats/table"
)

// Clean implements the "clean" subcommand: read a revenue CSV, select the
// category rows, reshape to a year × category table and write it out.
func Clean(args []string) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	csvOut := fs.String("csv", "", "output CSV file path (default stdout)")
	jsonOut := fs.String("json", "", "output JSON file path")
	xlsxOut := fs.String("xlsx", "", "output Excel workbook path")
	strict := fs.Bool("strict", false, "require category labels to equal the category name")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bmtcstats clean <input.csv> [--csv out.csv] [--json out.json] [--xlsx out.xlsx] [--strict]\n\n")
		fmt.Fprintf(os.Stderr, "Without output flags the cleaned table is written to stdout as CSV.\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(fs, args))

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(1)
	}

	_, res, err := loadCSV(fs.Arg(0), *strict)
	if err != nil {
		fatal("%v", err)
	}
	printWarnings(os.Stderr, res)

	if *csvOut == "" && *jsonOut == "" && *xlsxOut == "" {
		if err := table.WriteCSV(os.Stdout, res.Table); err != nil {
			fatal("%v", err)
		}
		return
	}

	outputs := []struct {
		path  string
		write func(io.Writer, *table.CleanedTable) error
	}{
		{*csvOut, table.WriteCSV},
		{*jsonOut, table.WriteJSON},
		{*xlsxOut, table.WriteXLSX},
	}
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeFile(o.path, res.Table, o.write); err != nil {
			fatal("%s: %v", o.path, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", o.path)
	}

	years, cats := res.Table.Dims()
	fmt.Fprintf(os.Stderr, "%d years × %d categories\n", years, cats)
}

func writeFile(path string, t *table.CleanedTable, write func(io.Writer, *table.CleanedTable) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
