package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnreadableFile    = errors.New("unreadable file")
	ErrGenerationFailed  = errors.New("background generation failed")
	ErrCreateFailed      = errors.New("create event failed")
	ErrNotFound          = errors.New("not found")
	ErrUnknownField      = errors.New("unknown draft field")
	ErrUnknownTemplate   = errors.New("unknown background template")
	ErrInvalidBackground = errors.New("invalid background descriptor")
	ErrInvalidTransition = errors.New("invalid flow transition")
	ErrBusy              = errors.New("operation already in progress")
	ErrNothingToRender   = errors.New("nothing to render")
)

// FieldError reports a problem with a single draft field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns e if any field failed, otherwise nil.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
