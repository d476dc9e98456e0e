package parsers

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"statement-importer/internal/amount"
	"statement-importer/internal/isin"
	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// brokerOperation is one row of a brokerage cash history
type brokerOperation struct {
	line    int
	date    string
	title   string
	details string
	amount  float64
}

// BuyDetails is the decomposed details text of a buy settlement, e.g.
// "Vanguard S&P 500 UCITS ETF acc (IE00BFMXXD54) 10 x 400.1128 PLN nr Z123"
type BuyDetails struct {
	AssetName     string
	ISIN          string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Currency      string
	TransactionID string
}

// buyDetailsPattern matches buy details settled in currency. Settlements in
// any other currency do not match.
func buyDetailsPattern(currency string) *regexp.Regexp {
	return regexp.MustCompile(`^(.+?)\s+\(([A-Z0-9]{12})\)\s+(\d+)\s+x\s+([\d.]+)\s+` +
		regexp.QuoteMeta(currency) + `\s+nr\s+(\S+)$`)
}

var plnBuyDetails = buyDetailsPattern("PLN")

// ParseBuyDetails decomposes the details text of a buy settled in PLN
func ParseBuyDetails(details string) (BuyDetails, error) {
	return parseBuyDetails(plnBuyDetails, "PLN", details)
}

func parseBuyDetails(pattern *regexp.Regexp, currency, details string) (BuyDetails, error) {
	expected := fmt.Sprintf("'<name> (<ISIN>) <quantity> x <price> %s nr <reference>'", currency)

	match := pattern.FindStringSubmatch(strings.TrimSpace(details))
	if match == nil {
		return BuyDetails{}, errors.FormatError(errors.Location{}, details, expected, nil)
	}

	quantity, err := decimal.NewFromString(match[3])
	if err != nil {
		return BuyDetails{}, errors.FormatError(errors.Location{}, details, expected, err)
	}
	unitPrice, err := decimal.NewFromString(match[4])
	if err != nil {
		return BuyDetails{}, errors.FormatError(errors.Location{}, details, expected, err)
	}

	return BuyDetails{
		AssetName:     match[1],
		ISIN:          match[2],
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		Currency:      currency,
		TransactionID: match[5],
	}, nil
}

// BrokerCSVParser handles brokerage cash history exports. The export is
// Windows-1250 encoded and every operation title must belong to a closed set.
type BrokerCSVParser struct {
	*BaseParser
	brokerConfig *BrokerCSVConfig
	resolver     *isin.Resolver
	buyPattern   *regexp.Regexp
}

// NewBrokerCSVParser creates a new BrokerCSVParser resolving ISINs through resolver
func NewBrokerCSVParser(brokerConfig *BrokerCSVConfig, resolver *isin.Resolver) (*BrokerCSVParser, error) {
	if brokerConfig == nil {
		brokerConfig = DefaultBrokerCSVConfig()
	}

	if err := brokerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid broker configuration: %w", err)
	}
	if resolver == nil {
		return nil, fmt.Errorf("ISIN resolver is required")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.Delimiter = brokerConfig.Delimiter

	return &BrokerCSVParser{
		BaseParser:   NewBaseParser(parseConfig, "broker_csv_parser"),
		brokerConfig: brokerConfig,
		resolver:     resolver,
		buyPattern:   buyDetailsPattern(brokerConfig.Currency),
	}, nil
}

// ReadFile parses a Windows-1250 broker export
func (p *BrokerCSVParser) ReadFile(data []byte) ([]models.Transaction, error) {
	operations, stats, err := p.readOperations(data)
	if err != nil {
		return nil, err
	}

	transactions := make([]models.Transaction, 0, len(operations))
	for _, op := range operations {
		tx, err := p.toTransaction(op)
		if err != nil {
			p.logger.WithError(err).WithField("line_number", op.line).Error("Failed to convert broker operation")
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	if err := validateAll(p.brokerConfig.Name, transactions); err != nil {
		return nil, err
	}

	stats.Transactions = len(transactions)
	p.logger.WithFields(stats.Fields()).Info("Parsed broker statement")
	return transactions, nil
}

func (p *BrokerCSVParser) readOperations(data []byte) ([]brokerOperation, *ParseStats, error) {
	parseCtx := NewParseContext(p.brokerConfig.Name)
	stats := &ParseStats{}

	decoded, err := charmap.Windows1250.NewDecoder().Bytes(data)
	if err != nil {
		return nil, stats, errors.EncodingError(parseCtx.Location(""), "windows-1250", err)
	}

	reader := p.NewReader(decoded)
	if err := p.ReadHeaders(reader, parseCtx, p.brokerConfig.requiredHeaders()); err != nil {
		return nil, stats, err
	}

	var operations []brokerOperation
	for {
		record, err := p.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, stats, err
		}
		stats.TotalRows++

		op := brokerOperation{line: parseCtx.LineNumber}
		if op.date, err = p.GetFieldValue(record, parseCtx, p.brokerConfig.DateColumn); err != nil {
			return nil, stats, err
		}
		if op.title, err = p.GetFieldValue(record, parseCtx, p.brokerConfig.TitleColumn); err != nil {
			return nil, stats, err
		}
		if op.details, err = p.GetFieldValue(record, parseCtx, p.brokerConfig.DetailsColumn); err != nil {
			return nil, stats, err
		}
		amountStr, err := p.GetFieldValue(record, parseCtx, p.brokerConfig.AmountColumn)
		if err != nil {
			return nil, stats, err
		}
		op.amount = amount.ParseDecimalComma(amountStr)

		operations = append(operations, op)
	}

	return operations, stats, nil
}

func (p *BrokerCSVParser) location(op brokerOperation, column string) errors.Location {
	return errors.Location{Source: p.brokerConfig.Name, Line: op.line, Column: column}
}

// toTransaction dispatches on the operation title
func (p *BrokerCSVParser) toTransaction(op brokerOperation) (models.Transaction, error) {
	cfg := p.brokerConfig
	cash := models.CashAssetID(cfg.Currency)

	switch {
	case op.title == cfg.DepositTitle:
		if op.amount < 0 {
			return models.Transaction{}, errors.FormatError(p.location(op, cfg.AmountColumn),
				fmt.Sprintf("%v", op.amount), "non-negative deposit amount", nil)
		}
		return models.Transaction{
			ActivityType: models.ActivityDeposit,
			ActivityDate: op.date,
			AssetID:      cash,
			Amount:       amount.ToNullDecimal(op.amount),
			Currency:     cfg.Currency,
			Comment:      op.title,
		}, nil

	case strings.HasPrefix(op.title, cfg.RefundPrefix):
		return models.Transaction{
			ActivityType: models.ActivityWithdrawal,
			ActivityDate: op.date,
			AssetID:      cash,
			Amount:       amount.ToNullDecimal(math.Abs(op.amount)),
			Currency:     cfg.Currency,
			Comment:      op.title,
		}, nil

	case strings.HasPrefix(op.title, cfg.BuyPrefix):
		return p.buyTransaction(op)

	default:
		return models.Transaction{}, errors.UnsupportedOperationError(p.location(op, cfg.TitleColumn), op.title)
	}
}

func (p *BrokerCSVParser) buyTransaction(op brokerOperation) (models.Transaction, error) {
	cfg := p.brokerConfig
	details, err := parseBuyDetails(p.buyPattern, cfg.Currency, op.details)
	if err != nil {
		return models.Transaction{}, errors.FormatError(p.location(op, cfg.DetailsColumn), op.details,
			fmt.Sprintf("buy details like 'Name (ISIN) 10 x 400.1128 %s nr Z123'", cfg.Currency), err)
	}

	ticker, err := p.resolver.Lookup(details.ISIN)
	if err != nil {
		return models.Transaction{}, err
	}

	p.logger.WithFields(logger.Fields{
		"isin":     details.ISIN,
		"ticker":   ticker,
		"quantity": details.Quantity.String(),
	}).Debug("Resolved buy settlement")

	return models.Transaction{
		ActivityType: models.ActivityBuy,
		ActivityDate: op.date,
		AssetID:      ticker,
		Quantity:     models.Some(details.Quantity),
		UnitPrice:    models.Some(details.UnitPrice),
		Amount:       amount.ToNullDecimal(math.Abs(op.amount)),
		Currency:     cfg.Currency,
		Comment:      fmt.Sprintf("%s nr %s", details.AssetName, details.TransactionID),
	}, nil
}
