// Package models defines the canonical records every statement parser and the
// bond quote synthesizer converge on.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType represents the kind of an account activity
type ActivityType string

const (
	ActivityBuy           ActivityType = "BUY"
	ActivitySell          ActivityType = "SELL"
	ActivityDeposit       ActivityType = "DEPOSIT"
	ActivityWithdrawal    ActivityType = "WITHDRAWAL"
	ActivityAddHolding    ActivityType = "ADD_HOLDING"
	ActivityRemoveHolding ActivityType = "REMOVE_HOLDING"
)

// String returns the string representation of ActivityType
func (t ActivityType) String() string {
	return string(t)
}

// IsValid checks if the activity type is one of the known values
func (t ActivityType) IsValid() bool {
	switch t {
	case ActivityBuy, ActivitySell, ActivityDeposit, ActivityWithdrawal, ActivityAddHolding, ActivityRemoveHolding:
		return true
	default:
		return false
	}
}

// CashAssetPrefix is the asset id prefix of synthetic cash holdings
const CashAssetPrefix = "$CASH-"

// CashAssetID returns the synthetic cash asset identifier for a currency
func CashAssetID(currency string) string {
	return CashAssetPrefix + currency
}

// Transaction is a parsed account activity that has no identity until stored.
// ActivityDate keeps the calendar date in the source's own notation.
type Transaction struct {
	ActivityType ActivityType        `json:"activityType"`
	ActivityDate string              `json:"activityDate"`
	AssetID      string              `json:"assetId"`
	Quantity     decimal.NullDecimal `json:"quantity"`
	UnitPrice    decimal.NullDecimal `json:"unitPrice"`
	Amount       decimal.NullDecimal `json:"amount"`
	Currency     string              `json:"currency,omitempty"`
	Comment      string              `json:"comment,omitempty"`
	IsDraft      bool                `json:"isDraft"`
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if !t.ActivityType.IsValid() {
		return fmt.Errorf("invalid activity type: %s", t.ActivityType)
	}
	if strings.TrimSpace(t.ActivityDate) == "" {
		return fmt.Errorf("activity date cannot be empty")
	}
	if strings.TrimSpace(t.AssetID) == "" {
		return fmt.Errorf("asset id cannot be empty")
	}
	if t.Amount.Valid && t.Amount.Decimal.IsNegative() {
		return fmt.Errorf("amount must be stored as an absolute value, got %s", t.Amount.Decimal)
	}
	return nil
}

// String returns a string representation of the Transaction
func (t Transaction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", t.ActivityDate, t.ActivityType, t.AssetID)
	if t.Quantity.Valid {
		fmt.Fprintf(&b, " qty=%s", t.Quantity.Decimal)
	}
	if t.UnitPrice.Valid {
		fmt.Fprintf(&b, " price=%s", t.UnitPrice.Decimal)
	}
	if t.Amount.Valid {
		fmt.Fprintf(&b, " amount=%s", t.Amount.Decimal)
	}
	if t.Currency != "" {
		fmt.Fprintf(&b, " %s", t.Currency)
	}
	return b.String()
}

// Some wraps a decimal into a present optional value
func Some(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Account is a host account activities are recorded against
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Activity is a stored Transaction bound to an account
type Activity struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	Transaction
}

// ActivityCreate is a Transaction about to be stored for an account
type ActivityCreate struct {
	AccountID string `json:"accountId"`
	Transaction
}

// ActivitySaveRequest deletes DeleteIDs then inserts Creates
type ActivitySaveRequest struct {
	Creates   []ActivityCreate `json:"creates"`
	DeleteIDs []string         `json:"deleteIds"`
}

// DataSource tags the origin of a quote
type DataSource string

const (
	// DataSourceManual marks quotes synthesized locally rather than fetched from a market feed
	DataSourceManual DataSource = "MANUAL"
)

// Quote is a single dated price record for a symbol. Bond prices carry no
// intraday spread, so Open, High, Low, Close and AdjClose are equal.
type Quote struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Timestamp  time.Time       `json:"timestamp"`
	CreatedAt  time.Time       `json:"createdAt"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	AdjClose   decimal.Decimal `json:"adjclose"`
	Volume     decimal.Decimal `json:"volume"`
	Currency   string          `json:"currency"`
	DataSource DataSource      `json:"dataSource"`
}

// NewFlatQuote builds the quote of a symbol whose whole day trades at one price
func NewFlatQuote(symbol string, day time.Time, price decimal.Decimal, currency string, source DataSource) Quote {
	day = Midnight(day)
	return Quote{
		ID:         QuoteID(symbol, day),
		Symbol:     symbol,
		Timestamp:  day,
		CreatedAt:  day,
		Open:       price,
		High:       price,
		Low:        price,
		Close:      price,
		AdjClose:   price,
		Volume:     decimal.Zero,
		Currency:   currency,
		DataSource: source,
	}
}

// DateLayout is the calendar-date layout used in quote ids
const DateLayout = "2006-01-02"

// FormatDateISO returns the YYYY-MM-DD calendar date of t as seen in t's own
// location, without any time of day or offset.
func FormatDateISO(t time.Time) string {
	return t.Format(DateLayout)
}

// QuoteID returns the composite quote key "<symbol>-<YYYY-MM-DD>"
func QuoteID(symbol string, day time.Time) string {
	return symbol + "-" + FormatDateISO(day)
}

// Midnight returns the UTC midnight of t's calendar date
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
