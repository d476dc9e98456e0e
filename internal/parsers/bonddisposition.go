package parsers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Positional columns of the disposition history sheet
const (
	dispositionDateColumn     = 0
	dispositionTypeColumn     = 1
	dispositionBondColumn     = 2
	dispositionSeriesColumn   = 4
	dispositionQuantityColumn = 5
	dispositionStatusColumn   = 7
)

// BondDispositionParser handles retail bond disposition history workbooks.
// Unlike the broker export, unknown operation types are skipped: the history
// routinely contains unrelated row kinds.
type BondDispositionParser struct {
	config *BondDispositionConfig
	logger logger.Logger
}

// NewBondDispositionParser creates a new BondDispositionParser
func NewBondDispositionParser(config *BondDispositionConfig) (*BondDispositionParser, error) {
	if config == nil {
		config = DefaultBondDispositionConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bond disposition configuration: %w", err)
	}

	return &BondDispositionParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("bond_disposition_parser"),
	}, nil
}

// ReadFile parses a single-sheet .xlsx workbook into ADD_HOLDING and
// REMOVE_HOLDING transactions.
func (p *BondDispositionParser) ReadFile(data []byte) ([]models.Transaction, error) {
	loc := errors.Location{Source: p.config.Name}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WorksheetError(loc, "cannot open workbook", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	switch {
	case len(sheets) == 0:
		return nil, errors.WorksheetError(loc, "no sheets found in the workbook", nil)
	case len(sheets) > 1:
		return nil, errors.WorksheetError(loc, fmt.Sprintf("multiple sheets found in the workbook: %s", strings.Join(sheets, ", ")), nil)
	}

	sheet := sheets[0]
	loc.Sheet = sheet

	rows, err := workbook.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WorksheetError(loc, fmt.Sprintf("failed to get worksheet [%s]", sheet), err)
	}

	stats := &ParseStats{}
	transactions := make([]models.Transaction, 0, len(rows))

	// First row holds the column titles
	for rowIndex := 1; rowIndex < len(rows); rowIndex++ {
		row := rows[rowIndex]
		stats.TotalRows++
		loc.Line = rowIndex + 1

		if cell(row, dispositionStatusColumn) != p.config.CompletedState {
			stats.RowsSkipped++
			continue
		}

		var activityType models.ActivityType
		switch cell(row, dispositionTypeColumn) {
		case p.config.PurchaseType:
			activityType = models.ActivityAddHolding
		case p.config.RedemptionType:
			activityType = models.ActivityRemoveHolding
		default:
			p.logger.WithFields(logger.Fields{
				"line_number": loc.Line,
				"type":        cell(row, dispositionTypeColumn),
			}).Debug("Skipping unrelated operation type")
			stats.RowsSkipped++
			continue
		}

		quantityStr := cell(row, dispositionQuantityColumn)
		quantity, err := decimal.NewFromString(quantityStr)
		if err != nil {
			return nil, errors.FormatError(withColumn(loc, dispositionQuantityColumn), quantityStr, "number of bonds", err)
		}

		date, err := dispositionDate(cell(row, dispositionDateColumn))
		if err != nil {
			return nil, errors.FormatError(withColumn(loc, dispositionDateColumn), cell(row, dispositionDateColumn), "date", err)
		}

		p.logger.WithFields(logger.Fields{
			"bond":   cell(row, dispositionBondColumn),
			"series": cell(row, dispositionSeriesColumn),
			"type":   activityType,
		}).Debug("Read bond disposition")

		transactions = append(transactions, models.Transaction{
			ActivityType: activityType,
			ActivityDate: date,
			AssetID:      cell(row, dispositionBondColumn),
			Quantity:     models.Some(quantity),
			UnitPrice:    models.Some(decimal.NewFromInt(p.config.FaceValue)),
			Currency:     p.config.Currency,
		})
	}

	if err := validateAll(p.config.Name, transactions); err != nil {
		return nil, err
	}

	stats.Transactions = len(transactions)
	p.logger.WithFields(stats.Fields()).Info("Parsed bond disposition history")
	return transactions, nil
}

// cell returns the trimmed value at index, or "" past the end of a short row
func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func withColumn(loc errors.Location, column int) errors.Location {
	name, err := excelize.ColumnNumberToName(column + 1)
	if err == nil {
		loc.Column = name
	}
	return loc
}

// dispositionDate converts a date cell to text. Native date cells arrive as
// serial numbers and become YYYY-MM-DD; text dates are kept as written.
func dispositionDate(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("empty date")
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value, nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", err
	}
	return models.FormatDateISO(t), nil
}
