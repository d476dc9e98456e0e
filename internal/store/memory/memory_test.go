package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
)

func deposit(date, amount string) models.Transaction {
	return models.Transaction{
		ActivityType: models.ActivityDeposit,
		ActivityDate: date,
		AssetID:      models.CashAssetID("PLN"),
		Amount:       models.Some(decimal.RequireFromString(amount)),
		Currency:     "PLN",
	}
}

func TestStore_Accounts(t *testing.T) {
	ctx := context.Background()
	s := New()

	created, err := s.CreateAccount(ctx, models.Account{Name: "mBank", Currency: "PLN"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if created.ID == "" {
		t.Error("expected an assigned id")
	}
	if _, err := s.CreateAccount(ctx, models.Account{ID: "bossa", Name: "Bossa", Currency: "PLN"}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if _, err := s.CreateAccount(ctx, models.Account{ID: "bossa", Name: "again"}); !errors.HasCode(err, errors.CodeStoreWrite) {
		t.Errorf("expected duplicate id to fail, got %v", err)
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 2 || accounts[0].Name != "Bossa" || accounts[1].Name != "mBank" {
		t.Errorf("ListAccounts() = %+v", accounts)
	}
}

func TestStore_SaveMany(t *testing.T) {
	ctx := context.Background()
	s := New()
	account, _ := s.CreateAccount(ctx, models.Account{Name: "mBank", Currency: "PLN"})
	other, _ := s.CreateAccount(ctx, models.Account{Name: "other", Currency: "PLN"})

	first, err := s.SaveMany(ctx, models.ActivitySaveRequest{Creates: []models.ActivityCreate{
		{AccountID: account.ID, Transaction: deposit("2024-01-02", "10")},
		{AccountID: account.ID, Transaction: deposit("2024-01-03", "20")},
		{AccountID: other.ID, Transaction: deposit("2024-01-04", "30")},
	}})
	if err != nil {
		t.Fatalf("SaveMany() error = %v", err)
	}
	if len(first) != 3 || first[0].ID == "" || first[0].ID == first[1].ID {
		t.Fatalf("unexpected created activities %+v", first)
	}

	_, err = s.SaveMany(ctx, models.ActivitySaveRequest{
		DeleteIDs: []string{first[0].ID, first[1].ID},
		Creates:   []models.ActivityCreate{{AccountID: account.ID, Transaction: deposit("2024-02-01", "5")}},
	})
	if err != nil {
		t.Fatalf("SaveMany() error = %v", err)
	}

	activities, _ := s.GetAll(ctx, account.ID)
	if len(activities) != 1 || activities[0].ActivityDate != "2024-02-01" {
		t.Errorf("GetAll() = %+v", activities)
	}
	if others, _ := s.GetAll(ctx, other.ID); len(others) != 1 {
		t.Errorf("other account must be untouched, got %+v", others)
	}
}

func TestStore_SaveManyUnknownAccount(t *testing.T) {
	ctx := context.Background()
	s := New()
	account, _ := s.CreateAccount(ctx, models.Account{Name: "mBank", Currency: "PLN"})
	saved, _ := s.SaveMany(ctx, models.ActivitySaveRequest{Creates: []models.ActivityCreate{
		{AccountID: account.ID, Transaction: deposit("2024-01-02", "10")},
	}})

	_, err := s.SaveMany(ctx, models.ActivitySaveRequest{
		DeleteIDs: []string{saved[0].ID},
		Creates:   []models.ActivityCreate{{AccountID: "missing", Transaction: deposit("2024-01-02", "10")}},
	})
	if !errors.HasCode(err, errors.CodeStoreWrite) {
		t.Fatalf("expected a store write error, got %v", err)
	}

	if activities, _ := s.GetAll(ctx, account.ID); len(activities) != 1 {
		t.Errorf("a rejected request must not delete anything, got %+v", activities)
	}
}

func TestStore_Quotes(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := func(d int) time.Time { return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC) }

	for _, d := range []int{3, 1, 2} {
		q := models.NewFlatQuote("EDO0134", day(d), decimal.NewFromInt(100), "PLN", models.DataSourceManual)
		if err := s.Update(ctx, "EDO0134", q); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}
	replacement := models.NewFlatQuote("EDO0134", day(2), decimal.NewFromInt(101), "PLN", models.DataSourceManual)
	if err := s.Update(ctx, "EDO0134", replacement); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	history, err := s.GetHistory(ctx, "EDO0134")
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 quotes, got %d", len(history))
	}
	for i, q := range history {
		if !q.Timestamp.Equal(day(i + 1)) {
			t.Errorf("history[%d] = %s, want date order", i, q.ID)
		}
	}
	if !history[1].Close.Equal(decimal.NewFromInt(101)) {
		t.Errorf("Update must replace by id, got close %s", history[1].Close)
	}
	if s.Updates() != 4 {
		t.Errorf("Updates() = %d", s.Updates())
	}

	if empty, _ := s.GetHistory(ctx, "ROD0136"); len(empty) != 0 {
		t.Errorf("expected empty history, got %v", empty)
	}
}
