// Package errors defines the categorised error type every importer package
// returns. The category maps to a CLI exit code and each error carries a
// suggestion for the user plus structured context for logging.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Context is structured detail attached to an error
type Context map[string]interface{}

// ImporterError is a categorised failure with an optional cause
type ImporterError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

func (e *ImporterError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *ImporterError) Unwrap() error {
	return e.Cause
}

// ExitCode is the CLI exit status for this error
func (e *ImporterError) ExitCode() int {
	return e.Category.ExitCode()
}

// WithContext sets one context key and returns e for chaining
func (e *ImporterError) WithContext(key string, value interface{}) *ImporterError {
	if e.Context == nil {
		e.Context = Context{}
	}
	e.Context[key] = value
	return e
}

// WithSuggestion replaces the suggestion
func (e *ImporterError) WithSuggestion(suggestion string) *ImporterError {
	e.Suggestion = suggestion
	return e
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// callers records the stack of the caller of New or Wrap
func callers() errors.StackTrace {
	st := errors.New("").(stackTracer).StackTrace()
	if len(st) > 2 {
		return st[2:]
	}
	return st
}

// New creates an error without a cause
func New(category ErrorCategory, code ErrorCode, message string) *ImporterError {
	return &ImporterError{Category: category, Code: code, Message: message, StackTrace: callers()}
}

// Wrap attaches category, code and message to err. It returns nil for a nil err.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ImporterError {
	if err == nil {
		return nil
	}
	return &ImporterError{Category: category, Code: code, Message: message, Cause: err, StackTrace: callers()}
}

// build wraps err when there is one and creates a fresh error otherwise
func build(category ErrorCategory, code ErrorCode, message string, err error) *ImporterError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

func fromTemplate(category ErrorCategory, code ErrorCode, subject string, err error) *ImporterError {
	t := describe(category, code, subject)
	return build(category, code, t.message, err).WithSuggestion(t.suggestion)
}

// FileError reports a statement, rates or configuration file that cannot be
// used
func FileError(code ErrorCode, path string, err error) *ImporterError {
	return fromTemplate(CategoryFile, code, path, err).WithContext("file_path", path)
}

// ConfigurationError reports a bad or missing setting. value is kept in the
// context for the log line.
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ImporterError {
	e := fromTemplate(CategoryConfiguration, code, setting, err).WithContext("setting", setting)
	if code == CodeInvalidConfig {
		e.Message = fmt.Sprintf("invalid value for %s: %v", setting, value)
		e.WithContext("value", value)
	}
	return e
}

// StoreError reports a failed call to the activity or quote store
func StoreError(code ErrorCode, operation string, err error) *ImporterError {
	return fromTemplate(CategoryStore, code, operation, err).WithContext("operation", operation)
}

// NetworkError reports a failed download
func NetworkError(code ErrorCode, endpoint string, err error) *ImporterError {
	return fromTemplate(CategoryNetwork, code, endpoint, err).WithContext("endpoint", endpoint)
}

// InternalError reports a condition that should not happen
func InternalError(code ErrorCode, operation string, err error) *ImporterError {
	return fromTemplate(CategoryInternal, code, operation, err).WithContext("operation", operation)
}

// AsImporterError finds the first ImporterError in the chain of err
func AsImporterError(err error) (*ImporterError, bool) {
	var target *ImporterError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// HasCode reports whether any ImporterError in the chain of err has code
func HasCode(err error, code ErrorCode) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*ImporterError); ok && e.Code == code {
			return true
		}
	}
	return false
}
