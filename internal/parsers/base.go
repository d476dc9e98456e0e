// Package parsers turns raw statement exports into canonical transactions.
//
// Every parser implements Reader: it receives the raw bytes of one export and
// returns either the complete list of transactions or an error, never both.
//
// Parser types:
//   - BankCSVParser: bank operation history, UTF-8 text with a free-form
//     preamble before a marker header row
//   - BrokerCSVParser: brokerage cash operations, Windows-1250 text with a
//     named header row and a closed set of operation titles
//   - BondDispositionParser: retail bond disposition history, a single-sheet
//     spreadsheet workbook with positional columns
//
// Example usage:
//
//	parser, err := NewBankCSVParser(DefaultBankCSVConfig())
//	transactions, err := parser.ReadFile(data)
package parsers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Reader converts the raw bytes of one statement export into transactions
type Reader interface {
	ReadFile(data []byte) ([]models.Transaction, error)
}

// ParseConfig holds configuration for delimited text parsing
type ParseConfig struct {
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	LazyQuotes       bool
}

// DefaultParseConfig returns the semicolon separated layout used by Polish exports
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ';',
		TrimLeadingSpace: false,
		SkipEmptyRows:    true,
		LazyQuotes:       true,
	}
}

// BaseParser provides common delimited text parsing functionality
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig, component string) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.GetGlobalLogger().WithComponent(component)
	log.WithFields(logger.Fields{
		"delimiter":   string(config.Delimiter),
		"lazy_quotes": config.LazyQuotes,
	}).Debug("Created parser")

	return &BaseParser{
		config: config,
		logger: log,
	}
}

// ParseContext holds state during parsing operations
type ParseContext struct {
	Source     string
	LineOffset int
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
}

// NewParseContext creates a new parsing context for the named source
func NewParseContext(source string) *ParseContext {
	return &ParseContext{
		Source:    source,
		Headers:   make([]string, 0),
		HeaderMap: make(map[string]int),
	}
}

// Location returns the position of the current record, optionally narrowed to a column
func (pc *ParseContext) Location(column string) errors.Location {
	return errors.Location{
		Source: pc.Source,
		Line:   pc.LineNumber,
		Column: column,
	}
}

// GetColumnIndex returns the index of a column by name, or -1 if not found
func (pc *ParseContext) GetColumnIndex(name string) int {
	if index, exists := pc.HeaderMap[name]; exists {
		return index
	}

	for header, index := range pc.HeaderMap {
		if strings.EqualFold(header, name) {
			return index
		}
	}

	return -1
}

// NewReader returns a csv.Reader over data configured for the parser
func (bp *BaseParser) NewReader(data []byte) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.LazyQuotes = bp.config.LazyQuotes
	reader.FieldsPerRecord = -1 // Variable number of fields
	reader.ReuseRecord = false
	return reader
}

// ReadHeaders reads the header row and checks the required columns are present
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, parseCtx *ParseContext, requiredHeaders []string) error {
	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			bp.logger.WithField("source", parseCtx.Source).Error("File is empty or contains no data")
			return errors.MissingColumnError(parseCtx.Location(""), strings.Join(requiredHeaders, ", "), nil).
				WithSuggestion("ensure the file contains header and data rows")
		}
		return errors.FormatError(parseCtx.Location(""), "header row", "delimited text", err)
	}

	parseCtx.LineNumber = bp.lineOf(reader, parseCtx)
	parseCtx.Headers = cleanHeaders(headers)
	parseCtx.HeaderMap = make(map[string]int, len(parseCtx.Headers))
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
	}

	bp.logger.WithField("headers", parseCtx.Headers).Debug("Read headers")

	for _, header := range requiredHeaders {
		if parseCtx.GetColumnIndex(header) == -1 {
			bp.logger.WithFields(logger.Fields{
				"missing_header":    header,
				"available_headers": parseCtx.Headers,
			}).Error("Required header is missing")
			return errors.MissingColumnError(parseCtx.Location(""), header, parseCtx.Headers)
		}
	}

	return nil
}

// cleanHeaders removes whitespace and a leading byte order mark from header names
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}
	return cleaned
}

// ReadRecord reads the next non empty record. It returns io.EOF at the end of input.
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, errors.FormatError(parseCtx.Location(""), "record", "delimited text", err)
		}

		parseCtx.LineNumber = bp.lineOf(reader, parseCtx)

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			bp.logger.WithField("line_number", parseCtx.LineNumber).Debug("Skipping empty record")
			continue
		}

		return record, nil
	}
}

func (bp *BaseParser) lineOf(reader *csv.Reader, parseCtx *ParseContext) int {
	line, _ := reader.FieldPos(0)
	return parseCtx.LineOffset + line
}

// isEmptyRecord checks if all fields in a record are empty or whitespace
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// GetFieldValue retrieves a trimmed field value by column name
func (bp *BaseParser) GetFieldValue(record []string, parseCtx *ParseContext, fieldName string) (string, error) {
	index := parseCtx.GetColumnIndex(fieldName)
	if index == -1 {
		return "", errors.MissingColumnError(parseCtx.Location(fieldName), fieldName, parseCtx.Headers)
	}

	if index >= len(record) {
		bp.logger.WithFields(logger.Fields{
			"field_name":    fieldName,
			"field_index":   index,
			"record_length": len(record),
			"line_number":   parseCtx.LineNumber,
		}).Debug("Field index exceeds record length")
		return "", nil
	}

	return strings.TrimSpace(record[index]), nil
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	TotalRows    int
	RowsSkipped  int
	Transactions int
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Read %d rows, %d skipped, %d transactions",
		ps.TotalRows, ps.RowsSkipped, ps.Transactions)
}

// Fields returns the statistics as log fields
func (ps *ParseStats) Fields() logger.Fields {
	return logger.Fields{
		"total_rows":   ps.TotalRows,
		"rows_skipped": ps.RowsSkipped,
		"transactions": ps.Transactions,
	}
}

// validateAll runs Transaction.Validate over the parser output
func validateAll(source string, transactions []models.Transaction) error {
	for i := range transactions {
		if err := transactions[i].Validate(); err != nil {
			return errors.Wrap(err, errors.CategoryParse, errors.CodeInvalidFormat,
				fmt.Sprintf("%s produced an invalid transaction", source)).
				WithContext("transaction", transactions[i].String())
		}
	}
	return nil
}
