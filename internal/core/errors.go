package core

import (
	"errors"
	"fmt"
)

const (
	FieldAmount   = "amount"
	FieldCategory = "category"
	FieldContact  = "contact"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("expense not found")
	ErrInvalidAmount = errors.New("invalid amount")
)

// ValidationError names the draft field that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "invalid " + e.Field
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expense %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationField returns the offending field when err is a ValidationError.
func ValidationField(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field, true
	}
	return "", false
}
