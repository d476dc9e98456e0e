package parsers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
)

var dispositionHeader = []interface{}{
	"Data dyspozycji", "Rodzaj dyspozycji", "Kod obligacji", "Rodzaj obligacji",
	"Seria", "Liczba obligacji", "Kwota", "Status",
}

// dispositionWorkbook builds a disposition history workbook with the given data rows
func dispositionWorkbook(t *testing.T, extraSheets []string, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &dispositionHeader); err != nil {
		t.Fatalf("SetSheetRow() error = %v", err)
	}
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatal(err)
		}
		row := row
		if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	for _, name := range extraSheets {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet() error = %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer() error = %v", err)
	}
	return buf.Bytes()
}

func newDispositionParser(t *testing.T) *BondDispositionParser {
	t.Helper()
	parser, err := NewBondDispositionParser(nil)
	if err != nil {
		t.Fatalf("NewBondDispositionParser() error = %v", err)
	}
	return parser
}

func TestBondDispositionParser_ReadFile(t *testing.T) {
	parser := newDispositionParser(t)
	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	data := dispositionWorkbook(t, nil,
		[]interface{}{day, "zakup papierów", "EDO0134", "EDO", "EDO0134", 10, 1000, "zrealizowana"},
		[]interface{}{day, "zakup papierów", "ROD0136", "ROD", "ROD0136", 3, 300, "anulowana"},
		[]interface{}{day, "zamiana obligacji", "EDO0134", "EDO", "EDO0134", 1, 100, "zrealizowana"},
		[]interface{}{"2024-03-01", "dyspozycja przedterminowego wykupu", "EDO0134", "EDO", "EDO0134", 2, 200, "zrealizowana"},
		[]interface{}{day, "zakup papierów", "EDO0134"},
	)

	transactions, err := parser.ReadFile(data)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d: %v", len(transactions), transactions)
	}

	tests := []struct {
		activityType models.ActivityType
		date         string
		quantity     int64
	}{
		{models.ActivityAddHolding, "2024-01-15", 10},
		{models.ActivityRemoveHolding, "2024-03-01", 2},
	}

	for i, tt := range tests {
		tx := transactions[i]
		if tx.ActivityType != tt.activityType {
			t.Errorf("[%d] ActivityType = %s, want %s", i, tx.ActivityType, tt.activityType)
		}
		if tx.ActivityDate != tt.date {
			t.Errorf("[%d] ActivityDate = %s, want %s", i, tx.ActivityDate, tt.date)
		}
		if tx.AssetID != "EDO0134" {
			t.Errorf("[%d] AssetID = %s", i, tx.AssetID)
		}
		if !tx.Quantity.Decimal.Equal(decimal.NewFromInt(tt.quantity)) {
			t.Errorf("[%d] Quantity = %s, want %d", i, tx.Quantity.Decimal, tt.quantity)
		}
		if !tx.UnitPrice.Valid || !tx.UnitPrice.Decimal.Equal(decimal.NewFromInt(100)) {
			t.Errorf("[%d] UnitPrice = %v, want 100", i, tx.UnitPrice)
		}
		if tx.Amount.Valid {
			t.Errorf("[%d] Amount must be absent, got %s", i, tx.Amount.Decimal)
		}
		if tx.Currency != "PLN" {
			t.Errorf("[%d] Currency = %s", i, tx.Currency)
		}
	}
}

func TestBondDispositionParser_Errors(t *testing.T) {
	parser := newDispositionParser(t)
	day := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		data []byte
		code errors.ErrorCode
	}{
		{
			name: "not a workbook",
			data: []byte("data;kwota\n"),
			code: errors.CodeWorksheet,
		},
		{
			name: "more than one sheet",
			data: dispositionWorkbook(t, []string{"Arkusz2"}),
			code: errors.CodeWorksheet,
		},
		{
			name: "bad quantity",
			data: dispositionWorkbook(t, nil,
				[]interface{}{day, "zakup papierów", "EDO0134", "EDO", "EDO0134", "dużo", 0, "zrealizowana"}),
			code: errors.CodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transactions, err := parser.ReadFile(tt.data)
			if transactions != nil {
				t.Errorf("no partial result on error, got %v", transactions)
			}
			if !errors.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestDispositionDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"45306", "2024-01-15", false},
		{"2024-03-01", "2024-03-01", false},
		{"15.01.2024", "15.01.2024", false},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := dispositionDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("dispositionDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("dispositionDate() = %q, want %q", got, tt.want)
			}
		})
	}
}
