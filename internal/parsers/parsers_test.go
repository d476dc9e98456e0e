package parsers

import (
	"io"
	"testing"

	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
)

func TestDefaultParseConfig(t *testing.T) {
	config := DefaultParseConfig()

	if config.Delimiter != ';' {
		t.Errorf("Expected delimiter to be ';', got %q", config.Delimiter)
	}
	if !config.SkipEmptyRows {
		t.Error("Expected SkipEmptyRows to be true")
	}
	if !config.LazyQuotes {
		t.Error("Expected LazyQuotes to be true")
	}
}

func TestBankCSVConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*BankCSVConfig)
		wantError bool
	}{
		{"Valid config", func(*BankCSVConfig) {}, false},
		{"Empty name", func(c *BankCSVConfig) { c.Name = " " }, true},
		{"Empty marker", func(c *BankCSVConfig) { c.HeaderMarker = "" }, true},
		{"Too few columns", func(c *BankCSVConfig) { c.MinColumns = 5 }, true},
		{"Bad currency", func(c *BankCSVConfig) { c.DefaultCurrency = "ZLOTY" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultBankCSVConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestBrokerCSVConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*BrokerCSVConfig)
		wantError bool
	}{
		{"Valid config", func(*BrokerCSVConfig) {}, false},
		{"Empty title column", func(c *BrokerCSVConfig) { c.TitleColumn = "" }, true},
		{"Empty buy prefix", func(c *BrokerCSVConfig) { c.BuyPrefix = "" }, true},
		{"No delimiter", func(c *BrokerCSVConfig) { c.Delimiter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultBrokerCSVConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestBondDispositionConfig_Validate(t *testing.T) {
	config := DefaultBondDispositionConfig()
	if err := config.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	config.FaceValue = 0
	if err := config.Validate(); err == nil {
		t.Error("Expected error for zero face value")
	}
}

func TestBaseParser_ReadHeaders(t *testing.T) {
	parser := NewBaseParser(nil, "test")

	t.Run("headers are trimmed and matched case-insensitively", func(t *testing.T) {
		reader := parser.NewReader([]byte("\ufeff Data ;Kwota\n2024-01-01;1,00\n"))
		parseCtx := NewParseContext("test")

		if err := parser.ReadHeaders(reader, parseCtx, []string{"data", "kwota"}); err != nil {
			t.Fatalf("ReadHeaders() error = %v", err)
		}
		if parseCtx.GetColumnIndex("DATA") != 0 || parseCtx.GetColumnIndex("kwota") != 1 {
			t.Errorf("unexpected header map %v", parseCtx.HeaderMap)
		}

		record, err := parser.ReadRecord(reader, parseCtx)
		if err != nil {
			t.Fatalf("ReadRecord() error = %v", err)
		}
		if parseCtx.LineNumber != 2 {
			t.Errorf("LineNumber = %d, want 2", parseCtx.LineNumber)
		}
		value, err := parser.GetFieldValue(record, parseCtx, "Kwota")
		if err != nil || value != "1,00" {
			t.Errorf("GetFieldValue() = %q, %v", value, err)
		}

		if _, err := parser.ReadRecord(reader, parseCtx); err != io.EOF {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		reader := parser.NewReader([]byte("data;kwota\n"))
		err := parser.ReadHeaders(reader, NewParseContext("test"), []string{"data", "szczegóły"})
		if !errors.HasCode(err, errors.CodeMissingColumn) {
			t.Errorf("expected missing column error, got %v", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		reader := parser.NewReader(nil)
		err := parser.ReadHeaders(reader, NewParseContext("test"), []string{"data"})
		if !errors.HasCode(err, errors.CodeMissingColumn) {
			t.Errorf("expected missing column error, got %v", err)
		}
	})
}

func TestBaseParser_SkipsEmptyRows(t *testing.T) {
	parser := NewBaseParser(nil, "test")
	reader := parser.NewReader([]byte("a;b\n;\n \n c;d\n"))
	parseCtx := NewParseContext("test")

	var records [][]string
	for {
		record, err := parser.ReadRecord(reader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadRecord() error = %v", err)
		}
		records = append(records, record)
	}

	if len(records) != 2 {
		t.Errorf("expected 2 non-empty records, got %d: %v", len(records), records)
	}
}

func TestValidateAll(t *testing.T) {
	valid := models.Transaction{
		ActivityType: models.ActivityDeposit,
		ActivityDate: "2024-01-01",
		AssetID:      models.CashAssetID("PLN"),
	}
	if err := validateAll("test", []models.Transaction{valid}); err != nil {
		t.Errorf("validateAll() error = %v", err)
	}

	invalid := valid
	invalid.AssetID = ""
	if err := validateAll("test", []models.Transaction{valid, invalid}); !errors.HasCode(err, errors.CodeInvalidFormat) {
		t.Errorf("expected invalid format error, got %v", err)
	}
}

func TestParseStats(t *testing.T) {
	stats := &ParseStats{TotalRows: 5, RowsSkipped: 2, Transactions: 3}
	if got, want := stats.String(), "Read 5 rows, 2 skipped, 3 transactions"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if stats.Fields()["transactions"] != 3 {
		t.Errorf("Fields() = %v", stats.Fields())
	}
}
