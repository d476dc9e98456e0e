package parsers

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"statement-importer/internal/isin"
	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
)

const brokerHeader = "data;tytuł operacji;szczegóły;kwota"

// brokerExport encodes rows the way the broker does, in Windows-1250
func brokerExport(t *testing.T, rows ...string) []byte {
	t.Helper()
	content := strings.Join(append([]string{brokerHeader}, rows...), "\r\n") + "\r\n"
	encoded, err := charmap.Windows1250.NewEncoder().String(content)
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}
	return []byte(encoded)
}

func newBrokerParser(t *testing.T) *BrokerCSVParser {
	t.Helper()
	parser, err := NewBrokerCSVParser(nil, isin.Default())
	if err != nil {
		t.Fatalf("NewBrokerCSVParser() error = %v", err)
	}
	return parser
}

func TestParseBuyDetails(t *testing.T) {
	details, err := ParseBuyDetails("Vanguard S&P 500 UCITS ETF acc (IE00BFMXXD54) 10 x 400.1128 PLN nr Z123")
	if err != nil {
		t.Fatalf("ParseBuyDetails() error = %v", err)
	}

	if details.AssetName != "Vanguard S&P 500 UCITS ETF acc" {
		t.Errorf("AssetName = %q", details.AssetName)
	}
	if details.ISIN != "IE00BFMXXD54" {
		t.Errorf("ISIN = %q", details.ISIN)
	}
	if !details.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Quantity = %s", details.Quantity)
	}
	if !details.UnitPrice.Equal(decimal.RequireFromString("400.1128")) {
		t.Errorf("UnitPrice = %s", details.UnitPrice)
	}
	if details.Currency != "PLN" || details.TransactionID != "Z123" {
		t.Errorf("Currency/TransactionID = %s/%s", details.Currency, details.TransactionID)
	}
}

func TestParseBuyDetails_Malformed(t *testing.T) {
	for _, details := range []string{
		"",
		"Vanguard (IE00BFMXXD54) 10 x 400.1128 PLN",
		"Vanguard (IE00BFMXXD5) 10 x 400.1128 PLN nr Z1",
		"Vanguard (IE00BFMXXD54) 1.5 x 400.1128 PLN nr Z1",
		"Vanguard (IE00BFMXXD54) 10 x 400,11 PLN nr Z1",
		"Vanguard (IE00BFMXXD54) 10 x 400.1128 EUR nr Z1",
	} {
		t.Run(details, func(t *testing.T) {
			if _, err := ParseBuyDetails(details); !errors.HasCode(err, errors.CodeInvalidFormat) {
				t.Errorf("expected format error, got %v", err)
			}
		})
	}
}

func TestBrokerCSVParser_ReadFile(t *testing.T) {
	parser := newBrokerParser(t)

	data := brokerExport(t,
		"2024-01-02;Przelew do DM BOŚ;;1956,00",
		"2024-01-03;Rozliczenie transakcji kupna;Vanguard S&P 500 UCITS ETF acc (IE00BFMXXD54) 4 x 400.1128 PLN nr Z123;-1600,45",
		"2024-01-04;Zwrot nadpłaty - przekroczony limit wpłat na IKE/IKZE 2024;;-150,00",
	)

	transactions, err := parser.ReadFile(data)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(transactions))
	}

	deposit := transactions[0]
	if deposit.ActivityType != models.ActivityDeposit || deposit.AssetID != "$CASH-PLN" {
		t.Errorf("unexpected deposit %v", deposit)
	}
	if !deposit.Amount.Decimal.Equal(decimal.NewFromInt(1956)) {
		t.Errorf("deposit amount = %s", deposit.Amount.Decimal)
	}
	if deposit.Comment != "Przelew do DM BOŚ" {
		t.Errorf("title must be decoded from Windows-1250, got %q", deposit.Comment)
	}

	buy := transactions[1]
	if buy.ActivityType != models.ActivityBuy || buy.AssetID != "VUAA.DE" {
		t.Errorf("unexpected buy %v", buy)
	}
	if !buy.Quantity.Decimal.Equal(decimal.NewFromInt(4)) || !buy.UnitPrice.Decimal.Equal(decimal.RequireFromString("400.1128")) {
		t.Errorf("buy quantity/price = %s/%s", buy.Quantity.Decimal, buy.UnitPrice.Decimal)
	}
	if !buy.Amount.Decimal.Equal(decimal.RequireFromString("1600.45")) {
		t.Errorf("buy amount = %s, want 1600.45", buy.Amount.Decimal)
	}
	if buy.Currency != "PLN" {
		t.Errorf("buy currency = %s, want PLN", buy.Currency)
	}
	if buy.Comment != "Vanguard S&P 500 UCITS ETF acc nr Z123" {
		t.Errorf("buy comment = %q", buy.Comment)
	}

	refund := transactions[2]
	if refund.ActivityType != models.ActivityWithdrawal || !refund.Amount.Decimal.Equal(decimal.NewFromInt(150)) {
		t.Errorf("unexpected refund %v", refund)
	}
}

func TestBrokerCSVParser_NonNumericAmount(t *testing.T) {
	parser := newBrokerParser(t)

	transactions, err := parser.ReadFile(brokerExport(t, "2024-01-02;Przelew do DM BOŚ;;brak"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if transactions[0].Amount.Valid {
		t.Errorf("non-numeric amount must be absent, got %s", transactions[0].Amount.Decimal)
	}
}

func TestBrokerCSVParser_Errors(t *testing.T) {
	parser := newBrokerParser(t)

	tests := []struct {
		name string
		data []byte
		code errors.ErrorCode
	}{
		{
			name: "unsupported title",
			data: brokerExport(t, "2024-01-02;Przelew do DM BOŚ;;10,00", "2024-01-05;Dywidenda;;3,00"),
			code: errors.CodeUnsupportedOperation,
		},
		{
			name: "unknown isin",
			data: brokerExport(t, "2024-01-03;Rozliczenie transakcji kupna;Some Fund (US0000000000) 1 x 10.00 PLN nr Z1;-10,00"),
			code: errors.CodeUnknownISIN,
		},
		{
			name: "malformed buy details",
			data: brokerExport(t, "2024-01-03;Rozliczenie transakcji kupna;Some Fund 1 x 10.00 PLN;-10,00"),
			code: errors.CodeInvalidFormat,
		},
		{
			name: "buy settled in another currency",
			data: brokerExport(t, "2024-01-03;Rozliczenie transakcji kupna;Vanguard S&P 500 UCITS ETF acc (IE00BFMXXD54) 10 x 400.1128 EUR nr Z1;-4001,13"),
			code: errors.CodeInvalidFormat,
		},
		{
			name: "missing column",
			data: []byte("data;kwota\r\n2024-01-02;1,00\r\n"),
			code: errors.CodeMissingColumn,
		},
		{
			name: "negative deposit",
			data: brokerExport(t, "2024-01-02;Przelew do DM BOŚ;;-10,00"),
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

func TestNewBrokerCSVParser_RequiresResolver(t *testing.T) {
	if _, err := NewBrokerCSVParser(nil, nil); err == nil {
		t.Error("expected an error without a resolver")
	}
}
