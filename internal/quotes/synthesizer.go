// Package quotes turns bond value series into dated quotes for the host
// quote store.
package quotes

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"statement-importer/internal/bonds"
	"statement-importer/internal/models"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Store is the part of the host quote store the synthesizer uses.
// Update inserts or replaces the quote with the same id.
type Store interface {
	GetHistory(ctx context.Context, symbol string) ([]models.Quote, error)
	Update(ctx context.Context, symbol string, quote models.Quote) error
}

// ProgressFunc is called after each stored quote with the number stored so
// far and the number staged in total.
type ProgressFunc func(emitted, total int)

// Config holds synthesizer settings
type Config struct {
	Currency            string            `json:"currency"`
	DataSource          models.DataSource `json:"data_source"`
	MaxUpdatesPerSecond float64           `json:"max_updates_per_second"`
	ProgressLogInterval time.Duration     `json:"progress_log_interval"`
}

// DefaultConfig returns the settings used for Polish treasury bonds
func DefaultConfig() *Config {
	return &Config{
		Currency:            "PLN",
		DataSource:          models.DataSourceManual,
		MaxUpdatesPerSecond: 0,
		ProgressLogInterval: 5 * time.Second,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Currency) != 3 {
		return fmt.Errorf("currency must be a 3 letter code, got %q", c.Currency)
	}
	if c.DataSource == "" {
		return fmt.Errorf("data source cannot be empty")
	}
	if c.MaxUpdatesPerSecond < 0 {
		return fmt.Errorf("max updates per second cannot be negative, got %v", c.MaxUpdatesPerSecond)
	}
	return nil
}

// Result summarises one synthesis run
type Result struct {
	Symbols  int           `json:"symbols"`
	Staged   int           `json:"staged"`
	Skipped  int           `json:"skipped"`
	Emitted  int           `json:"emitted"`
	Duration time.Duration `json:"duration"`
}

// Synthesizer emits the quotes a store is missing for a set of bonds
type Synthesizer struct {
	store   Store
	config  *Config
	limiter *rate.Limiter
	logger  logger.Logger
}

// NewSynthesizer creates a synthesizer writing to store
func NewSynthesizer(store Store, config *Config) (*Synthesizer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "quotes", config, err)
	}
	if store == nil {
		return nil, fmt.Errorf("quote store is required")
	}

	s := &Synthesizer{
		store:  store,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("quote_synthesizer"),
	}
	if config.MaxUpdatesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.MaxUpdatesPerSecond), 1)
	}
	return s, nil
}

// Synthesize stages a quote for every day of every matched bond that the
// store does not hold yet, then stores them one by one in symbol and date
// order. The first store failure aborts the run; quotes stored before it
// remain, so a later run resumes where this one stopped. The returned result
// reflects the progress made even when an error is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, matched map[string]*bonds.Bond, progress ProgressFunc) (*Result, error) {
	start := time.Now()
	result := &Result{Symbols: len(matched)}

	staged, skipped, err := s.stage(ctx, matched)
	if err != nil {
		return result, err
	}
	result.Staged = len(staged)
	result.Skipped = skipped

	s.logger.WithFields(logger.Fields{
		"symbols": result.Symbols,
		"staged":  result.Staged,
		"skipped": result.Skipped,
	}).Info("Staged bond quotes")

	emitted, err := s.emit(ctx, staged, progress)
	result.Emitted = emitted
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	return result, nil
}

// stage builds the missing quotes, one symbol at a time
func (s *Synthesizer) stage(ctx context.Context, matched map[string]*bonds.Bond) ([]models.Quote, int, error) {
	symbols := make([]string, 0, len(matched))
	for symbol := range matched {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	var staged []models.Quote
	skipped := 0

	for _, symbol := range symbols {
		bond := matched[symbol]

		history, err := s.store.GetHistory(ctx, symbol)
		if err != nil {
			return nil, skipped, errors.StoreError(errors.CodeStoreRead, "get quote history", err).
				WithContext("symbol", symbol)
		}

		existing := make(map[string]bool, len(history))
		for _, quote := range history {
			existing[quote.ID] = true
		}

		for dayIndex, value := range bond.Values() {
			day := bond.DateOf(dayIndex)
			id := models.QuoteID(symbol, day)
			if existing[id] {
				skipped++
				continue
			}
			existing[id] = true

			staged = append(staged, models.NewFlatQuote(symbol, day, decimal.NewFromFloat(value),
				s.config.Currency, s.config.DataSource))
		}

		s.logger.WithFields(logger.Fields{
			"symbol":   symbol,
			"existing": len(history),
		}).Debug("Scanned bond series")
	}

	return staged, skipped, nil
}

// emit stores the staged quotes sequentially
func (s *Synthesizer) emit(ctx context.Context, staged []models.Quote, progress ProgressFunc) (int, error) {
	total := len(staged)
	if total == 0 {
		return 0, nil
	}

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation:   "store bond quotes",
		Total:       int64(total),
		LogInterval: s.config.ProgressLogInterval,
		Logger:      s.logger,
	})

	for i, quote := range staged {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				tracker.CompleteWithError(err)
				return i, errors.InternalError(errors.CodeUnexpectedError, "wait for update slot", err)
			}
		}

		if err := s.store.Update(ctx, quote.Symbol, quote); err != nil {
			tracker.CompleteWithError(err)
			return i, errors.StoreError(errors.CodeStoreWrite, "update quote", err).
				WithContext("quote_id", quote.ID)
		}

		if progress != nil {
			progress(i+1, total)
		}
		tracker.Update(int64(i + 1))
	}

	tracker.Complete()
	return total, nil
}
