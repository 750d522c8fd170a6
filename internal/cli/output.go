package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/gamesheet/internal/sheet"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Evaluation/validation failure (bad scripts, cycles, missing entries)
	ExitCommandError = 2 // Command error (invalid paths, unreadable files, bad flags)
)

// internalCode is the catch-all error code for failures outside the
// sheet error taxonomy (I/O, encoding).
const internalCode = "INTERNAL"

// ExitError carries a process exit code alongside the error.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results either as human-readable
// text or as the machine-readable {status, data, error} envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostic writer; falls back to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope every command emits in json mode.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError pairs a sheet-taxonomy error code with its message.
type CLIError struct {
	Code    string      `json:"code"`              // e.g. "CYCLIC_DEPENDENCY"
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Fail renders err in the configured format. The code comes from the
// sheet error taxonomy when err carries a sheet.Error anywhere in its
// chain and is stripped from the rendered message so it is not printed
// twice; anything else is reported as INTERNAL.
func (f *OutputFormatter) Fail(err error, details interface{}) error {
	var se *sheet.Error
	if !errors.As(err, &se) {
		return f.fail(internalCode, err.Error(), details)
	}
	msg := se.Message
	if se.Entry != "" {
		msg = fmt.Sprintf("%s (entry=%s)", msg, se.Entry)
	}
	if se.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, se.Err)
	}
	return f.fail(string(se.Code), msg, details)
}

func (f *OutputFormatter) fail(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// errorCode maps an error chain to its taxonomy code.
func errorCode(err error) string {
	var se *sheet.Error
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return internalCode
}

// VerboseLog emits a diagnostic line when verbose mode is enabled.
// Diagnostics go to ErrWriter when one is set, so they never corrupt
// json-mode output on Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
