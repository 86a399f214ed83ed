// Package errors defines the error taxonomy shared by the mutation services.
// Every error returned to a caller is a *DomainError carrying one of four kinds.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindDownstream          Kind = "downstream"
)

type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *DomainError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches a target carrying only a kind by kind, and a target carrying a
// code by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code != "" {
		return t.Code == e.Code
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidation          = &DomainError{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound            = &DomainError{Kind: KindNotFound, Message: "not found"}
	ErrInsufficientBalance = &DomainError{Kind: KindInsufficientBalance, Message: "insufficient balance"}
	ErrDownstream          = &DomainError{Kind: KindDownstream, Message: "downstream failure"}
)

func Validation(message string, fields map[string]string) error {
	return &DomainError{
		Kind:    KindValidation,
		Code:    CodeInvalidRequest,
		Message: message,
		Fields:  fields,
	}
}

// ValidationCode is a validation error with a specific code.
func ValidationCode(code, message string, fields map[string]string) error {
	return &DomainError{Kind: KindValidation, Code: code, Message: message, Fields: fields}
}

func NotFound(code, message string, cause error) error {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message, Err: cause}
}

func InsufficientBalance(message string) error {
	return &DomainError{Kind: KindInsufficientBalance, Code: CodeInsufficientBalance, Message: message}
}

func Downstream(code, message string, cause error) error {
	return &DomainError{Kind: KindDownstream, Code: code, Message: message, Err: cause}
}

// KindOf returns the kind of err, treating foreign errors as downstream failures.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindDownstream
}

// As is errors.As re-exported so callers importing this package under the
// name errors keep access to it.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
