package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a model-building failure.
type Kind string

const (
	// KindInput indicates an input module could not be found or loaded.
	KindInput Kind = "input"
	// KindParse indicates a malformed grammar or schema, including a missing input file.
	KindParse Kind = "parse"
	// KindSchemaProcessing indicates a failure while resolving import/include
	// references or extracting declarations.
	KindSchemaProcessing Kind = "schema-processing"
	// KindType indicates an unknown type, an illegal redefinition, or a finality violation.
	KindType Kind = "type"
	// KindContentModelFormat indicates a simple type whose content does not match
	// exactly one recognized shape.
	KindContentModelFormat Kind = "content-model-format"
)

// Error is the error type returned by every public entry point.
//
//nolint:errname // public API name.
type Error struct {
	Cause   error
	Kind    Kind
	Message string
	Source  string
}

// Error formats the kind, message, source, and cause.
func (e *Error) Error() string {
	if e == nil {
		return "error <nil>"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Kind, e.Message))
	if e.Source != "" {
		b.WriteString(fmt.Sprintf(" in %s", e.Source))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New builds an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf formats a message and builds an Error of the given kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap builds an Error of the given kind carrying cause.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Wrapf formats a message and builds an Error of the given kind carrying cause.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return Wrap(kind, cause, fmt.Sprintf(format, args...))
}

// WithSource returns a copy of e annotated with the input it came from.
func (e *Error) WithSource(source string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Source = source
	return &cp
}

// Input reports an input module lookup or load failure.
func Input(format string, args ...any) *Error {
	return Newf(KindInput, format, args...)
}

// Parse reports malformed input.
func Parse(cause error, format string, args ...any) *Error {
	return Wrapf(KindParse, cause, format, args...)
}

// SchemaProcessing reports a resolution or extraction failure with its cause.
func SchemaProcessing(cause error, format string, args ...any) *Error {
	return Wrapf(KindSchemaProcessing, cause, format, args...)
}

// Type reports a type system failure.
func Type(format string, args ...any) *Error {
	return Newf(KindType, format, args...)
}

// ContentModelFormat reports a malformed simple type content model.
func ContentModelFormat(format string, args ...any) *Error {
	return Newf(KindContentModelFormat, format, args...)
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		target, ok := AsError(err)
		if !ok {
			return false
		}
		if target.Kind == kind {
			return true
		}
		err = target.Cause
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	target, ok := AsError(err)
	if !ok {
		return "", false
	}
	return target.Kind, true
}
