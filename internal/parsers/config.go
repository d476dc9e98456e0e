package parsers

import (
	"fmt"
	"strings"
)

// BankCSVConfig represents the layout of a bank operation history export
type BankCSVConfig struct {
	Name                      string `json:"name"`
	HeaderMarker              string `json:"header_marker"`
	Delimiter                 rune   `json:"delimiter"`
	MinColumns                int    `json:"min_columns"`
	DefaultCurrency           string `json:"default_currency"`
	OpeningBalanceDescription string `json:"opening_balance_description"`
}

// DefaultBankCSVConfig returns the mBank operation history layout
func DefaultBankCSVConfig() *BankCSVConfig {
	return &BankCSVConfig{
		Name:                      "mBank",
		HeaderMarker:              "#Data operacji",
		Delimiter:                 ';',
		MinColumns:                6,
		DefaultCurrency:           "PLN",
		OpeningBalanceDescription: "Opening Balance",
	}
}

// Validate checks if the bank configuration is valid
func (bc *BankCSVConfig) Validate() error {
	if strings.TrimSpace(bc.Name) == "" {
		return fmt.Errorf("bank name cannot be empty")
	}
	if strings.TrimSpace(bc.HeaderMarker) == "" {
		return fmt.Errorf("header marker cannot be empty")
	}
	if bc.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if bc.MinColumns < 6 {
		return fmt.Errorf("min columns must be at least 6, got %d", bc.MinColumns)
	}
	if len(bc.DefaultCurrency) != 3 {
		return fmt.Errorf("default currency must be a 3 letter code, got %q", bc.DefaultCurrency)
	}
	return nil
}

// BrokerCSVConfig represents the layout of a brokerage cash operation export
type BrokerCSVConfig struct {
	Name      string `json:"name"`
	Delimiter rune   `json:"delimiter"`
	Currency  string `json:"currency"`

	DateColumn    string `json:"date_column"`
	TitleColumn   string `json:"title_column"`
	DetailsColumn string `json:"details_column"`
	AmountColumn  string `json:"amount_column"`

	// Operation titles; deposit matches exactly, the others by prefix
	DepositTitle string `json:"deposit_title"`
	RefundPrefix string `json:"refund_prefix"`
	BuyPrefix    string `json:"buy_prefix"`
}

// DefaultBrokerCSVConfig returns the DM BOŚ cash history layout
func DefaultBrokerCSVConfig() *BrokerCSVConfig {
	return &BrokerCSVConfig{
		Name:          "BOSSA",
		Delimiter:     ';',
		Currency:      "PLN",
		DateColumn:    "data",
		TitleColumn:   "tytuł operacji",
		DetailsColumn: "szczegóły",
		AmountColumn:  "kwota",
		DepositTitle:  "Przelew do DM BOŚ",
		RefundPrefix:  "Zwrot nadpłaty - przekroczony limit wpłat na IKE/IKZE",
		BuyPrefix:     "Rozliczenie transakcji kupna",
	}
}

// Validate checks if the broker configuration is valid
func (bc *BrokerCSVConfig) Validate() error {
	if strings.TrimSpace(bc.Name) == "" {
		return fmt.Errorf("broker name cannot be empty")
	}
	if bc.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if len(bc.Currency) != 3 {
		return fmt.Errorf("currency must be a 3 letter code, got %q", bc.Currency)
	}
	for name, value := range map[string]string{
		"date column":    bc.DateColumn,
		"title column":   bc.TitleColumn,
		"details column": bc.DetailsColumn,
		"amount column":  bc.AmountColumn,
		"deposit title":  bc.DepositTitle,
		"refund prefix":  bc.RefundPrefix,
		"buy prefix":     bc.BuyPrefix,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	return nil
}

// requiredHeaders returns the column names that must be present in the header row
func (bc *BrokerCSVConfig) requiredHeaders() []string {
	return []string{bc.DateColumn, bc.TitleColumn, bc.DetailsColumn, bc.AmountColumn}
}

// BondDispositionConfig represents the layout of a bond disposition history workbook
type BondDispositionConfig struct {
	Name           string `json:"name"`
	CompletedState string `json:"completed_state"`
	PurchaseType   string `json:"purchase_type"`
	RedemptionType string `json:"redemption_type"`
	FaceValue      int64  `json:"face_value"`
	Currency       string `json:"currency"`
}

// DefaultBondDispositionConfig returns the obligacjeskarbowe.pl history layout
func DefaultBondDispositionConfig() *BondDispositionConfig {
	return &BondDispositionConfig{
		Name:           "Polish Bonds",
		CompletedState: "zrealizowana",
		PurchaseType:   "zakup papierów",
		RedemptionType: "dyspozycja przedterminowego wykupu",
		FaceValue:      100,
		Currency:       "PLN",
	}
}

// Validate checks if the bond disposition configuration is valid
func (bc *BondDispositionConfig) Validate() error {
	if strings.TrimSpace(bc.CompletedState) == "" {
		return fmt.Errorf("completed state cannot be empty")
	}
	if strings.TrimSpace(bc.PurchaseType) == "" || strings.TrimSpace(bc.RedemptionType) == "" {
		return fmt.Errorf("operation types cannot be empty")
	}
	if bc.FaceValue <= 0 {
		return fmt.Errorf("face value must be positive, got %d", bc.FaceValue)
	}
	if len(bc.Currency) != 3 {
		return fmt.Errorf("currency must be a 3 letter code, got %q", bc.Currency)
	}
	return nil
}
