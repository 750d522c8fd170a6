package sheet

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes sheet errors.
type ErrorCode string

const (
	// CodeDocumentParse indicates a malformed definition document.
	CodeDocumentParse ErrorCode = "DOCUMENT_PARSE"

	// CodeBadScript indicates a prelude or entry script failed to compile.
	CodeBadScript ErrorCode = "BAD_SCRIPT"

	// CodeCyclicDependency indicates the dependency relation loops back
	// on itself, detected at eval time or invalidation time.
	CodeCyclicDependency ErrorCode = "CYCLIC_DEPENDENCY"

	// CodeMissingDependency indicates a referenced or directly-requested
	// entry does not exist.
	CodeMissingDependency ErrorCode = "MISSING_DEPENDENCY"

	// CodeUnexpectedResult is reserved for type-mismatch policy.
	CodeUnexpectedResult ErrorCode = "UNEXPECTED_RESULT"

	// CodeEvalFailure indicates the evaluator raised a runtime failure
	// executing an otherwise-valid compiled script.
	CodeEvalFailure ErrorCode = "EVAL_FAILURE"
)

// Error is the error type for every failure the engine reports.
//
// Hosts are expected to surface Error() text verbatim next to the
// offending entry rather than crash, so the message carries the
// underlying evaluator diagnostics unmodified.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Entry names the entry the failure is attributed to, if any.
	Entry string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause (optional).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Entry != "" {
		msg = fmt.Sprintf("%s (entry=%s)", msg, e.Entry)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// codeOf extracts the ErrorCode from an error chain, or "" if the
// chain contains no sheet Error.
func codeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCycleError reports whether err is a cyclic-dependency failure.
// Uses errors.As to handle wrapped errors.
func IsCycleError(err error) bool {
	return codeOf(err) == CodeCyclicDependency
}

// IsMissingError reports whether err is a missing-dependency failure.
func IsMissingError(err error) bool {
	return codeOf(err) == CodeMissingDependency
}

// IsBadScriptError reports whether err is a script-compile failure.
func IsBadScriptError(err error) bool {
	return codeOf(err) == CodeBadScript
}

// IsDocumentError reports whether err is a definition-document failure.
func IsDocumentError(err error) bool {
	return codeOf(err) == CodeDocumentParse
}

// IsEvalError reports whether err is a runtime evaluation failure.
func IsEvalError(err error) bool {
	return codeOf(err) == CodeEvalFailure
}

// NewCycleError creates an Error for a cycle detected at entry,
// naming the node at which the dependency relation looped back.
func NewCycleError(entry, offender string) *Error {
	return &Error{
		Code:    CodeCyclicDependency,
		Entry:   entry,
		Message: fmt.Sprintf("dependency cycle through %q", offender),
	}
}

// NewMissingError creates an Error for an unknown entry name.
func NewMissingError(name string) *Error {
	return &Error{
		Code:    CodeMissingDependency,
		Entry:   name,
		Message: fmt.Sprintf("no entry named %q", name),
	}
}

// NewBadScriptError creates an Error for a script that failed to compile.
func NewBadScriptError(entry string, err error) *Error {
	return &Error{
		Code:    CodeBadScript,
		Entry:   entry,
		Message: "script does not compile",
		Err:     err,
	}
}

// NewEvalError creates an Error for an evaluation-time failure.
func NewEvalError(entry string, err error) *Error {
	return &Error{
		Code:    CodeEvalFailure,
		Entry:   entry,
		Message: "evaluation failed",
		Err:     err,
	}
}

// NewDocumentError creates an Error for a malformed definition document.
func NewDocumentError(err error) *Error {
	return &Error{
		Code:    CodeDocumentParse,
		Message: "malformed sheet document",
		Err:     err,
	}
}
