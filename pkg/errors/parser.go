package errors

import (
	"fmt"
	"strings"
)

// Location points at the offending spot of an input file
type Location struct {
	Source string `json:"source"`
	Sheet  string `json:"sheet,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column string `json:"column,omitempty"`
}

func (l Location) String() string {
	var parts []string
	if l.Source != "" {
		parts = append(parts, l.Source)
	}
	if l.Sheet != "" {
		parts = append(parts, fmt.Sprintf("sheet %s", l.Sheet))
	}
	if l.Line > 0 {
		parts = append(parts, fmt.Sprintf("line %d", l.Line))
	}
	if l.Column != "" {
		parts = append(parts, fmt.Sprintf("column %s", l.Column))
	}
	return strings.Join(parts, ", ")
}

func (e *ImporterError) withLocation(loc Location) *ImporterError {
	if loc.Source != "" {
		e.WithContext("source", loc.Source)
	}
	if loc.Sheet != "" {
		e.WithContext("sheet", loc.Sheet)
	}
	if loc.Line > 0 {
		e.WithContext("line", loc.Line)
	}
	if loc.Column != "" {
		e.WithContext("column", loc.Column)
	}
	return e
}

func located(message string, loc Location) string {
	if where := loc.String(); where != "" {
		return fmt.Sprintf("%s (%s)", message, where)
	}
	return message
}

// FormatError reports text that does not match the grammar it was expected to follow
func FormatError(loc Location, value, expected string, err error) *ImporterError {
	message := located(fmt.Sprintf("invalid format '%s', expected %s", value, expected), loc)
	return build(CategoryParse, CodeInvalidFormat, message, err).
		withLocation(loc).
		WithContext("value", value).
		WithSuggestion("check that the file was exported without manual edits")
}

// MissingHeaderError reports that the marker row introducing the data section is absent
func MissingHeaderError(loc Location, marker string) *ImporterError {
	message := located(fmt.Sprintf("header row starting with '%s' not found", marker), loc)
	return New(CategoryParse, CodeMissingHeader, message).
		withLocation(loc).
		WithContext("marker", marker).
		WithSuggestion("make sure the file is an operation history export of the selected service")
}

// MissingColumnError reports that a named column is not present in the header row
func MissingColumnError(loc Location, column string, available []string) *ImporterError {
	message := located(fmt.Sprintf("missing required column '%s'", column), loc)
	return New(CategoryParse, CodeMissingColumn, message).
		withLocation(loc).
		WithContext("available_columns", strings.Join(available, ", ")).
		WithSuggestion("verify the file has all required columns with correct headers")
}

// UnsupportedOperationError reports an operation title outside the closed set a parser handles
func UnsupportedOperationError(loc Location, title string) *ImporterError {
	message := located(fmt.Sprintf("unsupported operation title: [%s]", title), loc)
	return New(CategoryParse, CodeUnsupportedOperation, message).
		withLocation(loc).
		WithContext("title", title).
		WithSuggestion("remove the row from the export or extend the parser with this operation")
}

// LookupError reports an ISIN that has no ticker mapping
func LookupError(isin string) *ImporterError {
	return New(CategoryLookup, CodeUnknownISIN, fmt.Sprintf("ticker not found for ISIN: [%s]", isin)).
		WithContext("isin", isin).
		WithSuggestion("add the ISIN to the mapping file referenced by isin.map_file")
}

// UnsupportedServiceError reports an unknown statement source name
func UnsupportedServiceError(name string, known []string) *ImporterError {
	return New(CategoryLookup, CodeUnsupportedService, fmt.Sprintf("unsupported service: %s", name)).
		WithContext("service", name).
		WithSuggestion(fmt.Sprintf("use one of: %s", strings.Join(known, ", ")))
}

// WorksheetError reports a missing, duplicate or wrongly shaped worksheet
func WorksheetError(loc Location, reason string, err error) *ImporterError {
	return build(CategoryParse, CodeWorksheet, located(reason, loc), err).
		withLocation(loc).
		WithSuggestion("check that the workbook is the unmodified file published by its source")
}

// CellTypeError reports a cell whose type does not match what the layout requires
func CellTypeError(loc Location, value, expected string) *ImporterError {
	message := located(fmt.Sprintf("cannot read %s from cell [%s]", expected, value), loc)
	return New(CategoryParse, CodeCellType, message).
		withLocation(loc).
		WithContext("value", value).
		WithSuggestion("check that the workbook is the unmodified file published by its source")
}

// EncodingError reports bytes that cannot be decoded with the source's encoding
func EncodingError(loc Location, encoding string, err error) *ImporterError {
	return build(CategoryParse, CodeEncodingError, located(fmt.Sprintf("cannot decode %s text", encoding), loc), err).
		withLocation(loc).
		WithSuggestion("export the file again without converting its encoding")
}
