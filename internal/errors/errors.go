package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeStorage        ErrorType = "STORAGE"
	ErrTypeMalformedBatch ErrorType = "MALFORMED_BATCH"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
	// Fields maps a field name to its problems; set for validation errors.
	Fields map[string][]string
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if stderrors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Validation(message string, fields map[string][]string) *DomainError {
	e := New(ErrTypeValidation, message, nil)
	e.Fields = fields
	return e
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

func Storage(message string, err error) *DomainError {
	return New(ErrTypeStorage, message, err)
}

func MalformedBatch(message string, err error) *DomainError {
	return New(ErrTypeMalformedBatch, message, err)
}

// TypeOf returns the type of the outermost DomainError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ""
}

// Is reports whether err carries a DomainError of the given type.
func Is(err error, t ErrorType) bool {
	return TypeOf(err) == t
}
