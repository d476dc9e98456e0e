// Package importer coordinates the two workflows of the tool: replacing an
// account's activities with a parsed statement, and refreshing the daily
// quotes of the treasury bonds held across all accounts.
package importer

import (
	"context"
	"fmt"
	"time"

	"statement-importer/internal/models"
	"statement-importer/internal/parsers"
	"statement-importer/internal/registry"
	"statement-importer/internal/store"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// ActivityStore is the part of the host store an import writes to
type ActivityStore interface {
	store.Accounts
	store.Activities
}

// Readers resolves a source name to its statement parser
type Readers interface {
	ReaderFor(name string) (parsers.Reader, registry.Source, error)
}

// ImportResult summarises one import
type ImportResult struct {
	AccountID    string               `json:"account_id"`
	Source       string               `json:"source"`
	Transactions []models.Transaction `json:"transactions"`
	Deleted      int                  `json:"deleted"`
	Created      int                  `json:"created"`
	Duration     time.Duration        `json:"duration"`
}

// Importer replaces the activities of an account with a parsed statement
type Importer struct {
	readers Readers
	store   ActivityStore
	logger  logger.Logger
}

// New creates an importer
func New(readers Readers, store ActivityStore) (*Importer, error) {
	if readers == nil {
		return nil, fmt.Errorf("statement readers are required")
	}
	if store == nil {
		return nil, fmt.Errorf("activity store is required")
	}
	return &Importer{
		readers: readers,
		store:   store,
		logger:  logger.GetGlobalLogger().WithComponent("importer"),
	}, nil
}

// Parse reads a statement without touching the store
func (im *Importer) Parse(sourceName string, data []byte) ([]models.Transaction, registry.Source, error) {
	reader, source, err := im.readers.ReaderFor(sourceName)
	if err != nil {
		return nil, nil, err
	}

	transactions, err := reader.ReadFile(data)
	if err != nil {
		return nil, source, err
	}

	im.logger.WithFields(logger.Fields{
		"source":       source.Name(),
		"transactions": len(transactions),
	}).Info("Parsed statement")
	return transactions, source, nil
}

// Import parses data with the named source's reader and replaces every
// existing activity of the account with the result in a single save. Nothing
// is written when parsing fails.
func (im *Importer) Import(ctx context.Context, accountID, sourceName string, data []byte) (*ImportResult, error) {
	start := time.Now()
	op := logger.NewOperationLogger("import", im.logger.WithField("account_id", accountID))

	if err := im.requireAccount(ctx, accountID); err != nil {
		op.Error(err, "Account check failed")
		return nil, err
	}

	transactions, source, err := im.Parse(sourceName, data)
	if err != nil {
		op.Error(err, "Statement could not be parsed")
		return nil, err
	}
	op.Step("parsed", logger.Fields{"source": source.Name(), "transactions": len(transactions)})

	existing, err := im.store.GetAll(ctx, accountID)
	if err != nil {
		op.Error(err, "Existing activities could not be read")
		return nil, errors.StoreError(errors.CodeStoreRead, "get activities", err).WithContext("account_id", accountID)
	}

	request := models.ActivitySaveRequest{
		Creates:   make([]models.ActivityCreate, len(transactions)),
		DeleteIDs: make([]string, len(existing)),
	}
	for i, tx := range transactions {
		request.Creates[i] = models.ActivityCreate{AccountID: accountID, Transaction: tx}
	}
	for i, activity := range existing {
		request.DeleteIDs[i] = activity.ID
	}

	created, err := im.store.SaveMany(ctx, request)
	if err != nil {
		op.Error(err, "Activities could not be saved")
		return nil, errors.StoreError(errors.CodeStoreWrite, "save activities", err).WithContext("account_id", accountID)
	}

	result := &ImportResult{
		AccountID:    accountID,
		Source:       source.Name(),
		Transactions: transactions,
		Deleted:      len(request.DeleteIDs),
		Created:      len(created),
		Duration:     time.Since(start),
	}
	op.Step("saved", logger.Fields{"deleted": result.Deleted, "created": result.Created})
	op.Success("Statement imported")
	return result, nil
}

func (im *Importer) requireAccount(ctx context.Context, accountID string) error {
	accounts, err := im.store.ListAccounts(ctx)
	if err != nil {
		return errors.StoreError(errors.CodeStoreRead, "list accounts", err)
	}
	for _, account := range accounts {
		if account.ID == accountID {
			return nil
		}
	}
	return errors.ConfigurationError(errors.CodeInvalidConfig, "account", accountID,
		fmt.Errorf("account %q does not exist", accountID))
}
