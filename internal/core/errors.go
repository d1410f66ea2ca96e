package core

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when an operation needs data but no file has
// been loaded successfully.
var ErrEmptyDataset = errors.New("empty dataset: no file loaded")

// ErrEmptyView is returned when exporting a view that has no columns.
var ErrEmptyView = errors.New("empty view: select columns before exporting")

// ErrUnsupportedFile is the cause of a DecodeError when the filename names
// neither a CSV nor a spreadsheet.
var ErrUnsupportedFile = errors.New("unsupported file type")

// DecodeError reports a payload that could not be turned into a Dataset.
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error: %s: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownColumnError reports a selection or sort naming a column that does
// not exist in the source table.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %q", e.Column)
}

// DuplicateColumnError reports a selection naming the same column twice.
type DuplicateColumnError struct {
	Column string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column in selection: %q", e.Column)
}

// IsDecodeError reports whether err is or wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsUnknownColumn reports whether err is or wraps an *UnknownColumnError.
func IsUnknownColumn(err error) bool {
	var ue *UnknownColumnError
	return errors.As(err, &ue)
}

// IsDuplicateColumn reports whether err is or wraps a *DuplicateColumnError.
func IsDuplicateColumn(err error) bool {
	var de *DuplicateColumnError
	return errors.As(err, &de)
}
