// Package store declares the host portfolio storage the importer writes to.
//
// Two implementations exist: store/memory for tests and one-off runs, and
// store/sqlite for a persistent local database.
package store

import (
	"context"

	"statement-importer/internal/models"
)

// Accounts lists and creates host accounts
type Accounts interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
}

// Activities reads and replaces the activities of an account
type Activities interface {
	GetAll(ctx context.Context, accountID string) ([]models.Activity, error)
	// SaveMany deletes DeleteIDs then inserts Creates as one unit
	SaveMany(ctx context.Context, request models.ActivitySaveRequest) ([]models.Activity, error)
}

// Quotes reads and writes dated quotes
type Quotes interface {
	GetHistory(ctx context.Context, symbol string) ([]models.Quote, error)
	// Update inserts the quote or replaces the one with the same id
	Update(ctx context.Context, symbol string, quote models.Quote) error
}

// Store is the complete host storage
type Store interface {
	Accounts
	Activities
	Quotes
	Close() error
}
