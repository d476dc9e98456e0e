package sample

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"statement-importer/internal/bonds"
	"statement-importer/pkg/errors"
)

// RateIssue is one row of the treasury rate workbook
type RateIssue struct {
	ID        string
	SaleStart time.Time
	SaleEnd   time.Time
	Rates     []float64
}

// RatesWorkbook builds a treasury rate workbook with one sheet per bond
// family. Issues go to the sheet named by their first three letters.
func RatesWorkbook(issues ...RateIssue) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	families := bonds.Families()
	next := make(map[string]int, len(families))
	for i, family := range families {
		name := string(family)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, errors.InternalError(errors.CodeWorksheet, "name rate sheet", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, errors.InternalError(errors.CodeWorksheet, "add rate sheet", err)
		}

		header := []interface{}{"Seria", "Nazwa", "Oprocentowanie", "Sprzedaż od", "Sprzedaż do"}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return nil, errors.InternalError(errors.CodeWorksheet, "write rate header", err)
		}
		next[name] = 3
	}

	for _, issue := range issues {
		sheet := strings.ToUpper(issue.ID[:min(3, len(issue.ID))])
		line, ok := next[sheet]
		if !ok {
			return nil, errors.InternalError(errors.CodeWorksheet, "place rate issue",
				fmt.Errorf("issue %s belongs to no bond family", issue.ID))
		}

		row := []interface{}{issue.ID, "", "", issue.SaleStart, issue.SaleEnd, nil, nil, nil, nil}
		for _, rate := range issue.Rates {
			row = append(row, rate)
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", line), &row); err != nil {
			return nil, errors.InternalError(errors.CodeWorksheet, "write rate issue", err)
		}
		next[sheet] = line + 1
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.InternalError(errors.CodeWorksheet, "write rate workbook", err)
	}
	return buf.Bytes(), nil
}
