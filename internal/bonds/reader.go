package bonds

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Layout of a family sheet in the rate workbook
const (
	headerRows       = 2
	idColumn         = 0
	saleStartColumn  = 3
	saleEndColumn    = 4
	firstRateColumn  = 9
	rateWorkbookName = "bond rates"
)

// ReadBonds parses the rate workbook. It needs one sheet per family, named
// after the family code.
func ReadBonds(data []byte) (*AllBonds, error) {
	log := logger.GetGlobalLogger().WithComponent("bond_reader")
	loc := errors.Location{Source: rateWorkbookName}

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WorksheetError(loc, "cannot open workbook", err)
	}
	defer workbook.Close()

	all := &AllBonds{}
	for _, family := range Families() {
		issues, err := readFamily(workbook, family)
		if err != nil {
			return nil, err
		}
		log.WithFields(logger.Fields{
			"family": family,
			"issues": len(issues),
		}).Debug("Read bond family")

		switch family {
		case FamilyEDO:
			all.EDO = issues
		case FamilyROD:
			all.ROD = issues
		}
	}

	log.WithField("issues", all.Len()).Info("Read bond rate workbook")
	return all, nil
}

func readFamily(workbook *excelize.File, family Family) (map[BondID]*Bond, error) {
	sheet := string(family)
	loc := errors.Location{Source: rateWorkbookName, Sheet: sheet}

	index, err := workbook.GetSheetIndex(sheet)
	if err != nil || index < 0 {
		return nil, errors.WorksheetError(loc, fmt.Sprintf("failed to get worksheet [%s]", sheet), err)
	}

	rows, err := workbook.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WorksheetError(loc, fmt.Sprintf("failed to read worksheet [%s]", sheet), err)
	}

	issues := make(map[BondID]*Bond)
	for rowIndex := headerRows; rowIndex < len(rows); rowIndex++ {
		row := rows[rowIndex]
		id := BondID(cellValue(row, idColumn))
		if id == "" {
			continue
		}

		r := rowReader{workbook: workbook, sheet: sheet, row: row, rowIndex: rowIndex}

		saleStart, err := r.date(saleStartColumn)
		if err != nil {
			return nil, err
		}
		saleEnd, err := r.date(saleEndColumn)
		if err != nil {
			return nil, err
		}

		var rates []float64
		for year := 0; year < family.Years(); year++ {
			rate, present, err := r.rate(firstRateColumn + year)
			if err != nil {
				return nil, err
			}
			if !present {
				continue
			}
			rates = append(rates, roundRate(rate))
		}

		issues[id] = NewBond(id, family, saleStart, saleEnd, rates)
	}

	return issues, nil
}

// rowReader reads typed cells of one data row
type rowReader struct {
	workbook *excelize.File
	sheet    string
	row      []string
	rowIndex int
}

func (r rowReader) location(column int) errors.Location {
	loc := errors.Location{Source: rateWorkbookName, Sheet: r.sheet, Line: r.rowIndex + 1}
	if name, err := excelize.CoordinatesToCellName(column+1, r.rowIndex+1); err == nil {
		loc.Column = name
	}
	return loc
}

// isText reports whether the cell holds a string rather than a number or date
func (r rowReader) isText(column int) bool {
	name, err := excelize.CoordinatesToCellName(column+1, r.rowIndex+1)
	if err != nil {
		return false
	}
	cellType, err := r.workbook.GetCellType(r.sheet, name)
	if err != nil {
		return false
	}
	return cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString
}

// date reads a native date cell, stored as a serial day number
func (r rowReader) date(column int) (time.Time, error) {
	value := cellValue(r.row, column)
	if value == "" || r.isText(column) {
		return time.Time{}, errors.CellTypeError(r.location(column), value, "date")
	}

	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return time.Time{}, errors.CellTypeError(r.location(column), value, "date")
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, errors.CellTypeError(r.location(column), value, "date")
	}
	return models.Midnight(t), nil
}

// rate reads an annual rate cell. Empty and zero cells are absent.
func (r rowReader) rate(column int) (float64, bool, error) {
	value := cellValue(r.row, column)
	if value == "" {
		return 0, false, nil
	}
	if r.isText(column) {
		return 0, false, errors.CellTypeError(r.location(column), value, "yearly return")
	}

	rate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, errors.CellTypeError(r.location(column), value, "yearly return")
	}
	if rate == 0 {
		return 0, false, nil
	}
	return rate, true, nil
}

func cellValue(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
