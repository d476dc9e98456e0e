package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestActivityType_IsValid(t *testing.T) {
	for _, at := range []ActivityType{ActivityBuy, ActivitySell, ActivityDeposit, ActivityWithdrawal, ActivityAddHolding, ActivityRemoveHolding} {
		if !at.IsValid() {
			t.Errorf("expected %s to be valid", at)
		}
	}
	if ActivityType("DIVIDEND").IsValid() {
		t.Error("expected DIVIDEND to be invalid")
	}
}

func TestCashAssetID(t *testing.T) {
	if got := CashAssetID("PLN"); got != "$CASH-PLN" {
		t.Errorf("CashAssetID() = %q", got)
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name      string
		tx        Transaction
		wantError bool
	}{
		{
			name:      "valid deposit",
			tx:        Transaction{ActivityType: ActivityDeposit, ActivityDate: "2024-01-15", AssetID: "$CASH-PLN", Amount: Some(decimal.RequireFromString("10.5"))},
			wantError: false,
		},
		{
			name:      "invalid type",
			tx:        Transaction{ActivityType: "GIFT", ActivityDate: "2024-01-15", AssetID: "X"},
			wantError: true,
		},
		{
			name:      "empty date",
			tx:        Transaction{ActivityType: ActivityBuy, AssetID: "X"},
			wantError: true,
		},
		{
			name:      "negative amount",
			tx:        Transaction{ActivityType: ActivityWithdrawal, ActivityDate: "2024-01-15", AssetID: "$CASH-PLN", Amount: Some(decimal.RequireFromString("-1"))},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestFormatDateISO(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	warsaw := time.FixedZone("CET", 3600)
	newYork := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"utc date-time", time.Date(2024, 1, 2, 15, 45, 30, 0, time.UTC), "2024-01-02"},
		{"local end of day", time.Date(2025, 7, 14, 23, 59, 59, 0, warsaw), "2025-07-14"},
		{"dst start", time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC), "2024-03-31"},
		{"dst end", time.Date(2024, 10, 27, 23, 30, 0, 0, time.UTC), "2024-10-27"},
		{"negative offset", time.Date(2024, 12, 5, 8, 0, 0, 0, newYork), "2024-12-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDateISO(tt.in)
			if got != tt.want {
				t.Errorf("FormatDateISO() = %q, want %q", got, tt.want)
			}
			if !pattern.MatchString(got) {
				t.Errorf("FormatDateISO() = %q contains more than a calendar date", got)
			}
		})
	}
}

func TestNewFlatQuote(t *testing.T) {
	price := decimal.RequireFromString("101.37")
	q := NewFlatQuote("EDO1224", time.Date(2014, 12, 3, 17, 0, 0, 0, time.UTC), price, "PLN", DataSourceManual)

	if q.ID != "EDO1224-2014-12-03" {
		t.Errorf("unexpected id %q", q.ID)
	}
	for _, v := range []decimal.Decimal{q.Open, q.High, q.Low, q.Close, q.AdjClose} {
		if !v.Equal(price) {
			t.Errorf("expected every price field to be %s, got %s", price, v)
		}
	}
	if !q.Volume.IsZero() {
		t.Errorf("expected zero volume, got %s", q.Volume)
	}
	if !q.Timestamp.Equal(time.Date(2014, 12, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected midnight timestamp, got %s", q.Timestamp)
	}
}
