package statement

import "fmt"

// InputFormatError reports a file whose shape matches none of the known
// export layouts, or a recognized layout with a required column missing.
// The whole import is rejected; nothing is written.
type InputFormatError struct {
	Reason string
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("unrecognized statement format: %s", e.Reason)
}

func missingColumn(v Variant, column string) *InputFormatError {
	return &InputFormatError{
		Reason: fmt.Sprintf("%s layout is missing required column %q", v, column),
	}
}

// ParseError reports a cell that failed date or amount parsing. Per the
// all-or-nothing import contract, a single ParseError aborts the whole file.
type ParseError struct {
	Line  int    // 1-based data row number
	Field string // column name
	Value string // raw cell content
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: parsing %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
