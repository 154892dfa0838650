package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Cleaned"

// WriteCSV writes the table as CSV with a "Year" header column.
func WriteCSV(w io.Writer, t *CleanedTable) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteJSON writes the table as indented JSON.
func WriteJSON(w io.Writer, t *CleanedTable) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteXLSX writes the table to a single-sheet workbook. Amounts are stored
// as numeric cells, not text.
func WriteXLSX(w io.Writer, t *CleanedTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	header := append([]string{IndexName}, t.categories...)
	for j, h := range header {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}

	for i, y := range t.years {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(SheetName, cell, y); err != nil {
			return fmt.Errorf("xlsx year: %w", err)
		}
		for j, v := range t.values[i] {
			cell, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellFloat(SheetName, cell, v, -1, 64); err != nil {
				return fmt.Errorf("xlsx value: %w", err)
			}
		}
	}

	if len(header) > 1 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, "A", last, 18); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
