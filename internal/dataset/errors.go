package dataset

import "fmt"

// MissingFileError reports a table whose file is absent from the data directory.
type MissingFileError struct {
	Table string
	Path  string
	Err   error
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("table %s: file %s not found", e.Table, e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return e.Err
}

// MalformedRowError reports a required column that is absent (Line 0) or a
// required cell that does not parse. Line is 1-based and counts the header.
type MalformedRowError struct {
	Table  string
	Column string
	Line   int
	Value  string
	Err    error
}

func (e *MalformedRowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("table %s: %v", e.Table, e.Err)
	}
	if e.Line == 0 {
		return fmt.Sprintf("table %s: missing column %q", e.Table, e.Column)
	}
	if e.Err != nil {
		return fmt.Sprintf("table %s line %d: column %q value %q: %v", e.Table, e.Line, e.Column, e.Value, e.Err)
	}
	return fmt.Sprintf("table %s line %d: column %q value %q is invalid", e.Table, e.Line, e.Column, e.Value)
}

func (e *MalformedRowError) Unwrap() error {
	return e.Err
}

func missingColumn(table, column string) error {
	return &MalformedRowError{Table: table, Column: column}
}
