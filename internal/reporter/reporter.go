// Package reporter renders parsed transactions, import results and bond
// price updates for the terminal, for scripts (JSON) and for spreadsheets
// (CSV).
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"statement-importer/internal/bonds"
	"statement-importer/internal/importer"
	"statement-importer/internal/models"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// MaxListItems caps console lists; 0 prints everything
	MaxListItems int  `json:"max_list_items"`
	ShowComments bool `json:"show_comments"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		MaxListItems: 0,
		ShowComments: true,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxListItems < 0 {
		return fmt.Errorf("max list items cannot be negative, got %d", c.MaxListItems)
	}
	if c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n' || c.CSVDelimiter == '\r' {
		return fmt.Errorf("invalid csv delimiter %q", c.CSVDelimiter)
	}
	return nil
}

// ReportGenerator renders results in the configured format
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

var transactionHeaders = []string{
	"activity_type", "activity_date", "asset_id", "quantity", "unit_price", "amount", "currency", "comment",
}

// WriteTransactions renders parsed transactions
func (rg *ReportGenerator) WriteTransactions(transactions []models.Transaction, writer io.Writer) error {
	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, map[string]interface{}{
			"count":        len(transactions),
			"transactions": transactions,
		})
	case FormatCSV:
		rows := make([][]string, len(transactions))
		for i, tx := range transactions {
			rows[i] = transactionRecord(tx)
		}
		return rg.writeCSV(writer, transactionHeaders, rows)
	default:
		fmt.Fprintf(writer, "=== TRANSACTIONS (%d) ===\n", len(transactions))
		rg.printTransactionList(transactions, writer)
		return nil
	}
}

// WriteImport renders the outcome of an import
func (rg *ReportGenerator) WriteImport(result *importer.ImportResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("import result cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, result)
	case FormatCSV:
		rows := make([][]string, len(result.Transactions))
		for i, tx := range result.Transactions {
			rows[i] = append([]string{result.AccountID, result.Source}, transactionRecord(tx)...)
		}
		return rg.writeCSV(writer, append([]string{"account_id", "source"}, transactionHeaders...), rows)
	default:
		fmt.Fprintf(writer, "IMPORT REPORT\n")
		fmt.Fprintf(writer, "Account:  %s\n", result.AccountID)
		fmt.Fprintf(writer, "Source:   %s\n", result.Source)
		fmt.Fprintf(writer, "Deleted:  %d\n", result.Deleted)
		fmt.Fprintf(writer, "Created:  %d\n", result.Created)
		fmt.Fprintf(writer, "Duration: %v\n\n", result.Duration.Round(time.Millisecond))

		fmt.Fprintf(writer, "=== CASH FLOW ===\n")
		rg.printCashFlow(result.Transactions, writer)
		fmt.Fprintf(writer, "\n=== TRANSACTIONS (%d) ===\n", len(result.Transactions))
		rg.printTransactionList(result.Transactions, writer)
		return nil
	}
}

// WriteBondUpdate renders the outcome of a bond price update
func (rg *ReportGenerator) WriteBondUpdate(result *importer.UpdateResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("update result cannot be nil")
	}

	switch rg.config.Format {
	case FormatJSON:
		return writeJSON(writer, result)
	case FormatCSV:
		var rows [][]string
		for _, symbol := range result.Symbols {
			rows = append(rows, []string{symbol, "matched"})
		}
		for _, symbol := range result.Unmatched {
			rows = append(rows, []string{symbol, "unmatched"})
		}
		return rg.writeCSV(writer, []string{"symbol", "status"}, rows)
	default:
		fmt.Fprintf(writer, "BOND PRICE UPDATE\n")
		fmt.Fprintf(writer, "Issues in workbook: %d\n", result.Issues)
		fmt.Fprintf(writer, "Matched symbols:    %d %s\n", len(result.Symbols), bracketed(result.Symbols))
		fmt.Fprintf(writer, "Unmatched symbols:  %d %s\n", len(result.Unmatched), bracketed(result.Unmatched))
		if q := result.Quotes; q != nil {
			fmt.Fprintf(writer, "Quotes staged:      %d\n", q.Staged)
			fmt.Fprintf(writer, "Quotes skipped:     %d\n", q.Skipped)
			fmt.Fprintf(writer, "Quotes stored:      %d\n", q.Emitted)
		}
		fmt.Fprintf(writer, "Duration:           %v\n", result.Duration.Round(time.Millisecond))
		return nil
	}
}

// WriteBondValues renders the daily value series of a bond
func (rg *ReportGenerator) WriteBondValues(bond *bonds.Bond, currency string, writer io.Writer) error {
	if bond == nil {
		return fmt.Errorf("bond cannot be nil")
	}
	values := bond.Values()

	switch rg.config.Format {
	case FormatJSON:
		series := make([]map[string]interface{}, len(values))
		for i, v := range values {
			series[i] = map[string]interface{}{"date": models.FormatDateISO(bond.DateOf(i)), "value": v}
		}
		return writeJSON(writer, map[string]interface{}{
			"id":            bond.ID,
			"family":        bond.Family,
			"initialDate":   models.FormatDateISO(bond.InitialDate),
			"buyoutDate":    models.FormatDateISO(bond.BuyoutDate),
			"yearlyReturns": bond.YearlyReturns(),
			"values":        series,
		})
	case FormatCSV:
		rows := make([][]string, len(values))
		for i, v := range values {
			rows[i] = []string{models.FormatDateISO(bond.DateOf(i)), decimal.NewFromFloat(v).StringFixed(2)}
		}
		return rg.writeCSV(writer, []string{"date", "value"}, rows)
	default:
		fmt.Fprintf(writer, "BOND %s (%s)\n", bond.ID, bond.Family)
		fmt.Fprintf(writer, "Sold from:   %s\n", models.FormatDateISO(bond.InitialDate))
		fmt.Fprintf(writer, "Buyout:      %s\n", models.FormatDateISO(bond.BuyoutDate))
		fmt.Fprintf(writer, "Rates:       %s\n", formatRates(bond.YearlyReturns()))
		fmt.Fprintf(writer, "Days priced: %d\n\n", len(values))

		for i, v := range values {
			if rg.truncated(i, len(values), writer) {
				break
			}
			fmt.Fprintf(writer, "  %s  %s\n", models.FormatDateISO(bond.DateOf(i)),
				FormatMoney(decimal.NewFromFloat(v), currency))
		}
		return nil
	}
}

// FormatMoney formats an amount with the currency's symbol and separators.
// Unknown currency codes fall back to "<amount> <code>".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return strings.TrimSpace(amount.StringFixed(2) + " " + currency)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

func (rg *ReportGenerator) printTransactionList(transactions []models.Transaction, writer io.Writer) {
	for i, tx := range transactions {
		if rg.truncated(i, len(transactions), writer) {
			break
		}

		fmt.Fprintf(writer, "  %d. %s %-14s %-12s", i+1, tx.ActivityDate, tx.ActivityType, tx.AssetID)
		if tx.Quantity.Valid {
			fmt.Fprintf(writer, " qty %s", tx.Quantity.Decimal)
		}
		if tx.UnitPrice.Valid {
			fmt.Fprintf(writer, " @ %s", FormatMoney(tx.UnitPrice.Decimal, tx.Currency))
		}
		if tx.Amount.Valid {
			fmt.Fprintf(writer, " amount %s", FormatMoney(tx.Amount.Decimal, tx.Currency))
		}
		if rg.config.ShowComments && tx.Comment != "" {
			fmt.Fprintf(writer, " (%s)", tx.Comment)
		}
		fmt.Fprintf(writer, "\n")
	}
}

// printCashFlow sums deposits and withdrawals per currency
func (rg *ReportGenerator) printCashFlow(transactions []models.Transaction, writer io.Writer) {
	type flow struct{ in, out decimal.Decimal }
	flows := make(map[string]*flow)
	var currencies []string

	for _, tx := range transactions {
		if !tx.Amount.Valid {
			continue
		}
		var sign int
		switch tx.ActivityType {
		case models.ActivityDeposit:
			sign = 1
		case models.ActivityWithdrawal:
			sign = -1
		default:
			continue
		}

		f, ok := flows[tx.Currency]
		if !ok {
			f = &flow{}
			flows[tx.Currency] = f
			currencies = append(currencies, tx.Currency)
		}
		if sign > 0 {
			f.in = f.in.Add(tx.Amount.Decimal)
		} else {
			f.out = f.out.Add(tx.Amount.Decimal)
		}
	}

	if len(currencies) == 0 {
		fmt.Fprintf(writer, "No deposits or withdrawals\n")
		return
	}
	for _, currency := range currencies {
		f := flows[currency]
		fmt.Fprintf(writer, "%s: in %s, out %s, net %s\n", currency,
			FormatMoney(f.in, currency), FormatMoney(f.out, currency), FormatMoney(f.in.Sub(f.out), currency))
	}
}

// truncated prints the overflow line and reports true once index passes
// the configured list limit
func (rg *ReportGenerator) truncated(index, total int, writer io.Writer) bool {
	limit := rg.config.MaxListItems
	if limit == 0 || index < limit {
		return false
	}
	fmt.Fprintf(writer, "  ... and %d more\n", total-limit)
	return true
}

func (rg *ReportGenerator) writeCSV(writer io.Writer, headers []string, rows [][]string) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}
	for _, row := range rows {
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeJSON(writer io.Writer, v interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func transactionRecord(tx models.Transaction) []string {
	return []string{
		string(tx.ActivityType),
		tx.ActivityDate,
		tx.AssetID,
		optional(tx.Quantity),
		optional(tx.UnitPrice),
		optional(tx.Amount),
		tx.Currency,
		tx.Comment,
	}
}

func optional(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func formatRates(rates []float64) string {
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = decimal.NewFromFloat(r * 100).StringFixed(2) + "%"
	}
	return strings.Join(parts, " ")
}

func bracketed(symbols []string) string {
	if len(symbols) == 0 {
		return ""
	}
	return "[" + strings.Join(symbols, ", ") + "]"
}
