package usecase

import (
	"errors"
	"fmt"

	"github.com/xavierca1/leadbase/internal/entity"
	"github.com/xavierca1/leadbase/internal/leadcsv"
)

const (
	CodeInvalidFile          = "INVALID_FILE"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeEmptyFile            = "EMPTY_FILE"
	CodeParseError           = "PARSE_ERROR"
	CodeNoEmailColumn        = "NO_EMAIL_COLUMN"
	CodeAmbiguousEmailColumn = "AMBIGUOUS_EMAIL_COLUMN"
	CodeInvalidFilter        = "INVALID_FILTER"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	CodeNothingToExport      = "NOTHING_TO_EXPORT"
	CodeLeadNotFound         = "LEAD_NOT_FOUND"

	CodeStoreError = "STORE_ERROR"
)

// DomainError is a user-facing failure caused by the request itself.
// Nothing has been written when one is returned.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps a store or transport failure. It is surfaced as-is
// and never retried.
type TechnicalError struct {
	Code    string
	Op      string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

var (
	ErrInvalidFile          = &DomainError{Code: CodeInvalidFile, Message: "invalid file format, please upload a .csv file"}
	ErrFileTooLarge         = &DomainError{Code: CodeFileTooLarge, Message: "file too large"}
	ErrConfirmationRequired = &DomainError{Code: CodeConfirmationRequired, Message: fmt.Sprintf("type %q to confirm", ClearAllConfirmation)}
	ErrNothingToExport      = &DomainError{Code: CodeNothingToExport, Message: "no leads match your filters"}
)

func invalidInput(format string, args ...any) error {
	return &DomainError{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func invalidFilter(format string, args ...any) error {
	return &DomainError{Code: CodeInvalidFilter, Message: fmt.Sprintf(format, args...)}
}

func storeError(op string, err error) error {
	if errors.Is(err, entity.ErrLeadNotFound) {
		return &DomainError{Code: CodeLeadNotFound, Message: "lead not found", Err: err}
	}
	return &TechnicalError{
		Code:    CodeStoreError,
		Op:      op,
		Message: fmt.Sprintf("database error during %s", op),
		Err:     err,
	}
}

// fileError converts parser failures into input errors.
func fileError(err error) error {
	var parseErr *leadcsv.ParseError
	var ambiguous *leadcsv.AmbiguousColumnError

	switch {
	case errors.Is(err, leadcsv.ErrEmptyFile):
		return &DomainError{Code: CodeEmptyFile, Message: "CSV file is empty", Err: err}
	case errors.Is(err, leadcsv.ErrNoEmailColumn):
		return &DomainError{Code: CodeNoEmailColumn, Message: "no email column detected, please check your CSV file", Err: err}
	case errors.As(err, &ambiguous):
		return &DomainError{Code: CodeAmbiguousEmailColumn, Message: ambiguous.Error(), Err: err}
	case errors.As(err, &parseErr):
		return &DomainError{Code: CodeParseError, Message: "failed to parse CSV file, please check the file format", Err: err}
	}
	return err
}
