package table

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when the CSV has no header row.
var ErrEmptyInput = errors.New("table: input has no header")

// MissingColumnError reports that a required column is absent from the raw
// table. It is fatal: no partial output is produced.
type MissingColumnError struct {
	Column  string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table: required column %q not found (have %d columns)", e.Column, len(e.Columns))
}

// IsMissingColumn reports whether err is, or wraps, a MissingColumnError.
func IsMissingColumn(err error) bool {
	var mce *MissingColumnError
	return errors.As(err, &mce)
}
