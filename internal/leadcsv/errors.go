package leadcsv

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyFile     = errors.New("csv file is empty")
	ErrNoEmailColumn = errors.New("no email column detected")
)

// ParseError reports input that is not well-formed delimited text.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse csv (line %d): %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AmbiguousColumnError is returned when several headers look like email
// columns and the caller did not pick one.
type AmbiguousColumnError struct {
	Candidates []string
	Suggested  string
}

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("multiple email columns found (%s), choose one", strings.Join(e.Candidates, ", "))
}
