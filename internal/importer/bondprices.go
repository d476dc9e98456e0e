package importer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"statement-importer/internal/bonds"
	"statement-importer/internal/quotes"
	"statement-importer/internal/store"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Step is one stage of the bond price update
type Step string

const (
	StepDownload Step = "download"
	StepParse    Step = "parse"
	StepFetch    Step = "fetch"
	StepMatch    Step = "match"
	StepUpdate   Step = "update"
)

// Steps returns the stages in execution order
func Steps() []Step {
	return []Step{StepDownload, StepParse, StepFetch, StepMatch, StepUpdate}
}

// Description returns the human readable label of a step
func (s Step) Description() string {
	switch s {
	case StepDownload:
		return "Download bond rate workbook"
	case StepParse:
		return "Read bond rates"
	case StepFetch:
		return "Collect held bond symbols"
	case StepMatch:
		return "Match symbols to bond issues"
	case StepUpdate:
		return "Store bond quotes"
	default:
		return string(s)
	}
}

// StepStatus is the state of a step
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusError      StepStatus = "error"
)

// StatusFunc is called whenever a step changes state. err is set only with
// StatusError.
type StatusFunc func(step Step, status StepStatus, err error)

// Fetcher downloads a remote file
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BondStore is the part of the host store the bond price update uses
type BondStore interface {
	store.Accounts
	store.Activities
	quotes.Store
}

// UpdateResult summarises one bond price update
type UpdateResult struct {
	Issues    int            `json:"issues"`
	Symbols   []string       `json:"symbols"`
	Unmatched []string       `json:"unmatched,omitempty"`
	Quotes    *quotes.Result `json:"quotes,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// BondPriceUpdater downloads the bond rate workbook and stores the daily
// quotes of every bond held in any account
type BondPriceUpdater struct {
	fetcher     Fetcher
	store       BondStore
	synthesizer *quotes.Synthesizer
	url         string
	logger      logger.Logger
}

// NewBondPriceUpdater creates an updater reading the workbook from url
func NewBondPriceUpdater(fetcher Fetcher, store BondStore, url string, config *quotes.Config) (*BondPriceUpdater, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if url == "" {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "bonds.url", url, nil)
	}
	synthesizer, err := quotes.NewSynthesizer(store, config)
	if err != nil {
		return nil, err
	}

	return &BondPriceUpdater{
		fetcher:     fetcher,
		store:       store,
		synthesizer: synthesizer,
		url:         url,
		logger:      logger.GetGlobalLogger().WithComponent("bond_price_updater"),
	}, nil
}

// Run executes every step in order and stops at the first failure. Quotes
// stored before a failure are kept. status and progress may be nil.
func (u *BondPriceUpdater) Run(ctx context.Context, status StatusFunc, progress quotes.ProgressFunc) (*UpdateResult, error) {
	start := time.Now()
	result := &UpdateResult{}
	notify := func(step Step, s StepStatus, err error) {
		if status != nil {
			status(step, s, err)
		}
	}
	for _, step := range Steps() {
		notify(step, StatusPending, nil)
	}

	run := func(step Step, fn func() error) error {
		notify(step, StatusInProgress, nil)
		if err := logger.TimedOperation(string(step), u.logger, fn); err != nil {
			notify(step, StatusError, err)
			return err
		}
		notify(step, StatusCompleted, nil)
		return nil
	}

	var (
		data    []byte
		all     *bonds.AllBonds
		symbols []string
		matched *bonds.MatchResult
	)

	err := run(StepDownload, func() (err error) {
		data, err = u.fetcher.Fetch(ctx, u.url)
		return err
	})
	if err == nil {
		err = run(StepParse, func() (err error) {
			all, err = bonds.ReadBonds(data)
			if err == nil {
				result.Issues = all.Len()
			}
			return err
		})
	}
	if err == nil {
		err = run(StepFetch, func() (err error) {
			symbols, err = u.heldBondSymbols(ctx)
			return err
		})
	}
	if err == nil {
		err = run(StepMatch, func() error {
			matched = bonds.Match(all, symbols)
			result.Symbols = matched.Symbols()
			result.Unmatched = matched.Unmatched
			return nil
		})
	}
	if err == nil {
		err = run(StepUpdate, func() (err error) {
			result.Quotes, err = u.synthesizer.Synthesize(ctx, matched.Matched, progress)
			return err
		})
	}

	result.Duration = time.Since(start)
	return result, err
}

// heldBondSymbols returns the distinct bond asset ids across all accounts
func (u *BondPriceUpdater) heldBondSymbols(ctx context.Context) ([]string, error) {
	accounts, err := u.store.ListAccounts(ctx)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "list accounts", err)
	}

	seen := make(map[string]bool)
	for _, account := range accounts {
		activities, err := u.store.GetAll(ctx, account.ID)
		if err != nil {
			return nil, errors.StoreError(errors.CodeStoreRead, "get activities", err).
				WithContext("account_id", account.ID)
		}
		for _, activity := range activities {
			if bonds.IsBondSymbol(activity.AssetID) {
				seen[activity.AssetID] = true
			}
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	u.logger.WithFields(logger.Fields{
		"accounts": len(accounts),
		"symbols":  len(symbols),
	}).Debug("Collected held bond symbols")
	return symbols, nil
}
