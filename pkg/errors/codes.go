package errors

import "fmt"

// ErrorCategory groups error codes and decides the process exit code
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryLookup        ErrorCategory = "lookup"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStore         ErrorCategory = "store"
	CategoryNetwork       ErrorCategory = "network"
	CategoryInternal      ErrorCategory = "internal"
)

// ExitCode is the status the CLI exits with for errors of this category
func (c ErrorCategory) ExitCode() int {
	switch c {
	case CategoryFile:
		return 2
	case CategoryParse, CategoryLookup:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryStore, CategoryInternal:
		return 5
	case CategoryNetwork:
		return 6
	}
	return 1
}

// ErrorCode identifies one failure within a category
type ErrorCode string

const (
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	CodeInvalidFormat        ErrorCode = "invalid_format"
	CodeMissingHeader        ErrorCode = "missing_header"
	CodeMissingColumn        ErrorCode = "missing_column"
	CodeUnsupportedOperation ErrorCode = "unsupported_operation"
	CodeWorksheet            ErrorCode = "worksheet"
	CodeCellType             ErrorCode = "cell_type"
	CodeEncodingError        ErrorCode = "encoding_error"

	CodeUnknownISIN        ErrorCode = "unknown_isin"
	CodeUnsupportedService ErrorCode = "unsupported_service"

	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	CodeStoreRead  ErrorCode = "store_read"
	CodeStoreWrite ErrorCode = "store_write"

	CodeConnectionFailed   ErrorCode = "connection_failed"
	CodeTimeout            ErrorCode = "timeout"
	CodeServiceUnavailable ErrorCode = "service_unavailable"

	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// template is the message pattern and fix hint of a code. The pattern takes
// the subject (a path, setting, operation or endpoint) as its only verb.
type template struct {
	message    string
	suggestion string
}

var templates = map[ErrorCode]template{
	CodeFileNotFound:   {"file not found: %s", "check the path; the file must exist and be readable"},
	CodeFilePermission: {"permission denied reading %s", "grant read access to the file or copy it somewhere readable"},
	CodeFileCorrupted:  {"file cannot be read: %s", "export the file again from its source"},

	CodeInvalidConfig: {"invalid value for %s", "see `importer --help` for accepted values"},
	CodeMissingConfig: {"missing required setting: %s", "pass it as a flag, an IMPORTER_ variable or in the config file"},

	CodeStoreRead:  {"store read failed during %s", "check that the database is reachable and not locked"},
	CodeStoreWrite: {"store write failed during %s", "records written before the failure are kept; rerun to resume"},

	CodeConnectionFailed:   {"connection to %s failed", "check network connectivity and the configured URL"},
	CodeTimeout:            {"request to %s timed out", "raise bonds.timeout or retry later"},
	CodeServiceUnavailable: {"%s answered with an error", "the service may be down; retry later"},

	CodeUnexpectedError: {"unexpected error during %s", "this is a bug; report it with the error details"},
}

// describe fills the template of code for subject, falling back to a generic
// message for codes without one
func describe(category ErrorCategory, code ErrorCode, subject string) template {
	t, ok := templates[code]
	if !ok {
		return template{
			message:    string(category) + " error: " + subject,
			suggestion: "check the input and try again",
		}
	}
	return template{message: fmt.Sprintf(t.message, subject), suggestion: t.suggestion}
}
