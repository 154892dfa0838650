package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalepa/bmtcstats/analysis"
	"github.com/zalepa/bmtcstats/chart"
	"github.com/zalepa/bmtcstats/table"
)

// Report implements the "report" subcommand: render the summary page and
// every chart of one CSV into a multi-page PDF.
func Report(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	pdfOut := fs.String("pdf", "", "output PDF file path (required)")
	title := fs.String("title", "", "report title (default: derived from the input file name)")
	column := fs.String("column", "", "category to analyse (default: first category)")
	x := fs.String("x", "", "independent variable for the hypothesis test")
	y := fs.String("y", "", "dependent variable for the hypothesis test")
	strict := fs.Bool("strict", false, "require category labels to equal the category name")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bmtcstats report <input.csv> --pdf out.pdf [--title T] [--column C] [--x X] [--y Y] [--strict]\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(reorderArgs(fs, args))

	if fs.NArg() < 1 || *pdfOut == "" {
		fs.Usage()
		os.Exit(1)
	}

	_, res, err := loadCSV(fs.Arg(0), *strict)
	if err != nil {
		fatal("%v", err)
	}
	printWarnings(os.Stderr, res)

	cols, err := resolveColumns(res.Table, *column, *x, *y)
	if err != nil {
		fatal("%v", err)
	}
	if *title == "" {
		*title = "BMTC Financial Statistical Report: " + filepath.Base(fs.Arg(0))
	}

	r := buildReport(*title, res, cols)
	if err := writeReportFile(*pdfOut, r); err != nil {
		fatal("%v", err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d pages)\n", *pdfOut, r.PageCount())
}

func buildReport(title string, res *table.Result, cols chart.Columns) chart.Report {
	r := chart.Report{
		Title:     title,
		Table:     res.Table,
		Columns:   cols,
		Summaries: analysis.Summarize(res.Table),
		Warnings:  res.Warnings(),
	}
	if test, err := analysis.TestPair(res.Table, cols.X, cols.Y); err != nil {
		r.TestErr = err
	} else {
		r.Test = &test
	}
	r.Narrative = analysis.Narrate(res.Table, cols.Column, r.Test)
	return r
}

// writeReportFile renders r to path, then re-reads the file and checks the
// page count.
func writeReportFile(path string, r chart.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := chart.WriteReport(f, r); err != nil {
		f.Close()
		return fmt.Errorf("rendering %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := chart.InspectPDF(in)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	if info.Pages != r.PageCount() {
		return fmt.Errorf("verifying %s: got %d pages, want %d", path, info.Pages, r.PageCount())
	}
	return nil
}
