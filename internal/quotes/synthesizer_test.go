package quotes

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"statement-importer/internal/bonds"
	"statement-importer/internal/models"
	"statement-importer/internal/store/memory"
	"statement-importer/pkg/errors"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// matched returns two one-year bonds of 366 daily values each
func matched() map[string]*bonds.Bond {
	start := date(2023, time.January, 1)
	return map[string]*bonds.Bond{
		"ROD0135": bonds.NewBond("ROD0135", bonds.FamilyROD, start, start, []float64{0.0365}),
		"EDO0133": bonds.NewBond("EDO0133", bonds.FamilyEDO, start, start, []float64{0.073}),
	}
}

// failingStore wraps the memory store and fails every update after the
// first limit ones
type failingStore struct {
	*memory.Store
	limit int
	calls int
}

func (f *failingStore) Update(ctx context.Context, symbol string, quote models.Quote) error {
	f.calls++
	if f.calls > f.limit {
		return fmt.Errorf("quote store unavailable")
	}
	return f.Store.Update(ctx, symbol, quote)
}

func newSynthesizer(t *testing.T, store Store) *Synthesizer {
	t.Helper()
	s, err := NewSynthesizer(store, nil)
	if err != nil {
		t.Fatalf("NewSynthesizer() error = %v", err)
	}
	return s
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{"default", func(c *Config) {}, false},
		{"short currency", func(c *Config) { c.Currency = "PL" }, true},
		{"empty data source", func(c *Config) { c.DataSource = "" }, true},
		{"negative rate limit", func(c *Config) { c.MaxUpdatesPerSecond = -1 }, true},
		{"rate limited", func(c *Config) { c.MaxUpdatesPerSecond = 50 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			if err := config.Validate(); (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestNewSynthesizer_InvalidConfig(t *testing.T) {
	_, err := NewSynthesizer(memory.New(), &Config{Currency: "PLN"})
	if !errors.HasCode(err, errors.CodeInvalidConfig) {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSynthesizer(t, store)

	var calls []int
	result, err := s.Synthesize(ctx, matched(), func(emitted, total int) {
		if total != 732 {
			t.Errorf("progress total = %d, want 732", total)
		}
		calls = append(calls, emitted)
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if result.Symbols != 2 || result.Staged != 732 || result.Emitted != 732 || result.Skipped != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(calls) != 732 || calls[len(calls)-1] != 732 {
		t.Fatalf("expected 732 progress calls ending at 732, got %d", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] <= calls[i-1] {
			t.Fatalf("progress must strictly increase, got %d after %d", calls[i], calls[i-1])
		}
	}

	history, _ := store.GetHistory(ctx, "EDO0133")
	if len(history) != 366 {
		t.Fatalf("expected 366 EDO0133 quotes, got %d", len(history))
	}
	first, last := history[0], history[365]
	if first.ID != "EDO0133-2023-01-01" || !first.Close.Equal(decimal.NewFromInt(100)) {
		t.Errorf("unexpected first quote %+v", first)
	}
	if last.ID != "EDO0133-2024-01-01" || !last.Close.Equal(decimal.RequireFromString("107.3")) {
		t.Errorf("unexpected last quote %s close %s", last.ID, last.Close)
	}
	if last.Currency != "PLN" || last.DataSource != models.DataSourceManual || !last.Volume.IsZero() {
		t.Errorf("unexpected quote metadata %+v", last)
	}
}

func TestSynthesize_SecondRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	s := newSynthesizer(t, store)

	if _, err := s.Synthesize(ctx, matched(), nil); err != nil {
		t.Fatalf("first Synthesize() error = %v", err)
	}
	updates := store.Updates()

	progressed := false
	result, err := s.Synthesize(ctx, matched(), func(int, int) { progressed = true })
	if err != nil {
		t.Fatalf("second Synthesize() error = %v", err)
	}
	if result.Staged != 0 || result.Emitted != 0 || result.Skipped != 732 {
		t.Errorf("unexpected second result %+v", result)
	}
	if store.Updates() != updates {
		t.Errorf("second run stored %d quotes", store.Updates()-updates)
	}
	if progressed {
		t.Error("progress must not be reported when nothing is stored")
	}
}

func TestSynthesize_SkipsExistingQuotes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	existing := models.NewFlatQuote("ROD0135", date(2023, time.January, 5), decimal.NewFromInt(1), "PLN", models.DataSourceManual)
	if err := store.Update(ctx, "ROD0135", existing); err != nil {
		t.Fatal(err)
	}

	result, err := newSynthesizer(t, store).Synthesize(ctx, matched(), nil)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if result.Skipped != 1 || result.Staged != 731 {
		t.Errorf("unexpected result %+v", result)
	}

	history, _ := store.GetHistory(ctx, "ROD0135")
	if !history[4].Close.Equal(decimal.NewFromInt(1)) {
		t.Errorf("existing quote must be left untouched, got %s", history[4].Close)
	}
}

func TestSynthesize_AbortsOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New(), limit: 400}

	var last int
	result, err := newSynthesizer(t, store).Synthesize(ctx, matched(), func(emitted, total int) { last = emitted })
	if !errors.HasCode(err, errors.CodeStoreWrite) {
		t.Fatalf("expected a store write error, got %v", err)
	}
	if result == nil || result.Emitted != 400 || last != 400 {
		t.Fatalf("expected 400 emitted before the failure, got %+v (last progress %d)", result, last)
	}
	if store.calls != 401 {
		t.Errorf("run must stop at the first failure, got %d calls", store.calls)
	}

	// symbols are emitted in sorted order, so EDO0133 is complete
	edo, _ := store.GetHistory(ctx, "EDO0133")
	rod, _ := store.GetHistory(ctx, "ROD0135")
	if len(edo) != 366 || len(rod) != 34 {
		t.Errorf("partial state EDO=%d ROD=%d", len(edo), len(rod))
	}
	if !rod[33].Timestamp.Equal(date(2023, time.February, 3)) {
		t.Errorf("ROD quotes must be emitted in date order, last is %s", rod[33].ID)
	}

	store.limit = 1000
	resumed, err := newSynthesizer(t, store).Synthesize(ctx, matched(), nil)
	if err != nil {
		t.Fatalf("resumed Synthesize() error = %v", err)
	}
	if resumed.Skipped != 400 || resumed.Emitted != 332 {
		t.Errorf("resume must emit only the rest, got %+v", resumed)
	}
}

func TestSynthesize_HistoryFailure(t *testing.T) {
	_, err := newSynthesizer(t, historyFailure{}).Synthesize(context.Background(), matched(), nil)
	if !errors.HasCode(err, errors.CodeStoreRead) {
		t.Errorf("expected a store read error, got %v", err)
	}
}

type historyFailure struct{}

func (historyFailure) GetHistory(ctx context.Context, symbol string) ([]models.Quote, error) {
	return nil, fmt.Errorf("history unavailable")
}

func (historyFailure) Update(ctx context.Context, symbol string, quote models.Quote) error {
	return nil
}

func TestSynthesize_RateLimitedCancelled(t *testing.T) {
	config := DefaultConfig()
	config.MaxUpdatesPerSecond = 0.001
	s, err := NewSynthesizer(memory.New(), config)
	if err != nil {
		t.Fatalf("NewSynthesizer() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := s.Synthesize(ctx, matched(), nil)
	if err == nil {
		t.Fatal("expected the limiter wait to fail")
	}
	if result.Emitted != 1 {
		t.Errorf("expected only the burst quote to be stored, got %d", result.Emitted)
	}
}
