package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn is returned when a requested category is not a column
	// of the cleaned table.
	ErrUnknownColumn = errors.New("analysis: unknown column")

	// ErrTooFewObservations is returned when a computation needs more years
	// than the table holds.
	ErrTooFewObservations = errors.New("analysis: too few observations")

	// ErrConstantInput is returned when a correlation or fit is requested on
	// a column whose values are all equal.
	ErrConstantInput = errors.New("analysis: input is constant")
)

// DegenerateSelectionError is returned by TestPair when both variables are
// the same column. Callers should block the test and ask for two different
// variables.
type DegenerateSelectionError struct {
	Column string
}

func (e *DegenerateSelectionError) Error() string {
	return fmt.Sprintf("analysis: X and Y are both %q; choose two different variables", e.Column)
}

// IsDegenerate reports whether err is a DegenerateSelectionError.
func IsDegenerate(err error) bool {
	var d *DegenerateSelectionError
	return errors.As(err, &d)
}

func unknownColumn(name string) error {
	return fmt.Errorf("%w %q", ErrUnknownColumn, name)
}
