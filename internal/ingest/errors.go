package ingest

import (
	"errors"
	"fmt"
)

// ErrNoInput is returned when an input tree holds no readable page files
var ErrNoInput = errors.New("no OCR page files found")

// MalformedInputError reports a page that cannot be turned into line records.
// The page is skipped; the batch continues.
type MalformedInputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed page %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed page %s: %s", e.Path, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

func malformed(path, reason string, err error) error {
	return &MalformedInputError{Path: path, Reason: reason, Err: err}
}
