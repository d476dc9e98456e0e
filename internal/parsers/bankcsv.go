package parsers

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"statement-importer/internal/amount"
	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// bankOperation is one row of a bank operation history
type bankOperation struct {
	date         string
	description  string
	account      string
	category     string
	amount       decimal.Decimal
	balanceAfter decimal.Decimal
	currency     string
}

// BankCSVParser handles bank operation history exports. The export starts with
// a free-form preamble; data begins at the first line starting with the header
// marker.
type BankCSVParser struct {
	*BaseParser
	bankConfig *BankCSVConfig
}

// NewBankCSVParser creates a new BankCSVParser with the given bank configuration
func NewBankCSVParser(bankConfig *BankCSVConfig) (*BankCSVParser, error) {
	if bankConfig == nil {
		bankConfig = DefaultBankCSVConfig()
	}

	if err := bankConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bank configuration: %w", err)
	}

	parseConfig := DefaultParseConfig()
	parseConfig.Delimiter = bankConfig.Delimiter

	return &BankCSVParser{
		BaseParser: NewBaseParser(parseConfig, "bank_csv_parser"),
		bankConfig: bankConfig,
	}, nil
}

// ReadFile parses a UTF-8 bank export into DEPOSIT and WITHDRAWAL transactions
// against the synthetic cash asset of each operation's currency.
func (p *BankCSVParser) ReadFile(data []byte) ([]models.Transaction, error) {
	operations, stats, err := p.readOperations(data)
	if err != nil {
		return nil, err
	}

	if len(operations) == 0 {
		p.logger.WithFields(stats.Fields()).Info("Bank statement contains no operations")
		return []models.Transaction{}, nil
	}

	if opening, ok := p.openingBalance(operations[len(operations)-1]); ok {
		p.logger.WithFields(logger.Fields{
			"date":   opening.date,
			"amount": opening.amount.String(),
		}).Debug("Adding opening balance operation")
		operations = append(operations, opening)
	}

	transactions := make([]models.Transaction, 0, len(operations))
	for _, op := range operations {
		transactions = append(transactions, p.toTransaction(op))
	}

	if err := validateAll(p.bankConfig.Name, transactions); err != nil {
		return nil, err
	}

	stats.Transactions = len(transactions)
	p.logger.WithFields(stats.Fields()).Info("Parsed bank statement")
	return transactions, nil
}

// readOperations locates the header marker and parses every data row after it
func (p *BankCSVParser) readOperations(data []byte) ([]bankOperation, *ParseStats, error) {
	parseCtx := NewParseContext(p.bankConfig.Name)
	stats := &ParseStats{}

	body, offset, ok := p.findHeader(data)
	if !ok {
		p.logger.WithField("marker", p.bankConfig.HeaderMarker).Error("Header row not found")
		return nil, stats, errors.MissingHeaderError(parseCtx.Location(""), p.bankConfig.HeaderMarker)
	}
	parseCtx.LineOffset = offset

	reader := p.NewReader(body)

	// The marker row itself is the column header
	if _, err := p.ReadRecord(reader, parseCtx); err != nil {
		if err == io.EOF {
			return nil, stats, errors.MissingHeaderError(parseCtx.Location(""), p.bankConfig.HeaderMarker)
		}
		return nil, stats, err
	}

	var operations []bankOperation
	for {
		record, err := p.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, stats, err
		}
		stats.TotalRows++

		if len(record) < p.bankConfig.MinColumns {
			p.logger.WithFields(logger.Fields{
				"line_number": parseCtx.LineNumber,
				"columns":     len(record),
			}).Debug("Skipping short row")
			stats.RowsSkipped++
			continue
		}

		dateStr := strings.TrimSpace(record[0])
		amountStr := strings.TrimSpace(record[4])
		if dateStr == "" || amountStr == "" {
			p.logger.WithField("line_number", parseCtx.LineNumber).Debug("Skipping row without date or amount")
			stats.RowsSkipped++
			continue
		}

		op, err := p.parseOperation(record, parseCtx)
		if err != nil {
			return nil, stats, err
		}
		operations = append(operations, op)
	}

	return operations, stats, nil
}

// findHeader returns the content starting at the marker line and the number
// of preamble lines before it.
func (p *BankCSVParser) findHeader(data []byte) ([]byte, int, bool) {
	marker := []byte(p.bankConfig.HeaderMarker)
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	offset := 0
	rest := data
	for len(rest) > 0 {
		if bytes.HasPrefix(rest, marker) {
			return rest, offset, true
		}
		next := bytes.IndexByte(rest, '\n')
		if next == -1 {
			break
		}
		rest = rest[next+1:]
		offset++
	}
	return nil, 0, false
}

// parseOperation converts one data row; columns are date, description,
// account, category, amount and running balance.
func (p *BankCSVParser) parseOperation(record []string, parseCtx *ParseContext) (bankOperation, error) {
	value, err := amount.ParseAmount(record[4])
	if err != nil {
		return bankOperation{}, errors.FormatError(parseCtx.Location("amount"), strings.TrimSpace(record[4]), "amount like '-1 234,56 PLN'", err)
	}

	balance, err := amount.ParseAmount(record[5])
	if err != nil {
		return bankOperation{}, errors.FormatError(parseCtx.Location("balance"), strings.TrimSpace(record[5]), "amount like '-1 234,56 PLN'", err)
	}

	currency := value.Currency
	if currency == "" {
		currency = balance.Currency
	}
	if currency == "" {
		currency = p.bankConfig.DefaultCurrency
	}

	return bankOperation{
		date:         strings.TrimSpace(record[0]),
		description:  strings.TrimSpace(record[1]),
		account:      record[2],
		category:     record[3],
		amount:       value.Value,
		balanceAfter: balance.Value,
		currency:     currency,
	}, nil
}

// openingBalance reconciles an export that does not start from a zero
// balance. Exports list the newest operation first, so the last row is the
// chronologically first one.
func (p *BankCSVParser) openingBalance(first bankOperation) (bankOperation, bool) {
	residual := first.balanceAfter.Sub(first.amount)
	if residual.IsZero() {
		return bankOperation{}, false
	}

	return bankOperation{
		date:         first.date,
		description:  p.bankConfig.OpeningBalanceDescription,
		account:      first.account,
		category:     "Balance Adjustment",
		amount:       residual,
		balanceAfter: decimal.Zero,
		currency:     first.currency,
	}, true
}

func (p *BankCSVParser) toTransaction(op bankOperation) models.Transaction {
	activityType := models.ActivityDeposit
	if op.amount.IsNegative() {
		activityType = models.ActivityWithdrawal
	}

	return models.Transaction{
		ActivityType: activityType,
		ActivityDate: op.date,
		AssetID:      models.CashAssetID(op.currency),
		Amount:       models.Some(op.amount.Abs()),
		Currency:     op.currency,
		Comment:      op.description,
		IsDraft:      false,
	}
}
