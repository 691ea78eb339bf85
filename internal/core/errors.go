package core

import (
	"errors"
	"strings"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrInvalidStatus      = errors.New("invalid payment status")
	ErrFieldTooLong       = errors.New("field too long")
	ErrNotFound           = errors.New("payment not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError ties a failure to the input field that caused it.
type ValidationError struct {
	Field   string
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func fieldError(field string, err error, msg string) *ValidationError {
	return &ValidationError{Field: field, Err: err, Message: msg}
}

// ValidationErrors collects every field failure of a single operation so
// callers can report them together.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v))
	for _, e := range v {
		errs = append(errs, e)
	}
	return errs
}

// orNil avoids returning a typed nil inside an error interface.
func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// add keeps ValidationError values flat when a nested call already
// returned a batch.
func (v *ValidationErrors) add(field string, err error) {
	var batch ValidationErrors
	if errors.As(err, &batch) {
		*v = append(*v, batch...)
		return
	}
	var fe *ValidationError
	if errors.As(err, &fe) {
		*v = append(*v, fe)
		return
	}
	*v = append(*v, fieldError(field, err, err.Error()))
}
