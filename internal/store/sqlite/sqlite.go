// Package sqlite implements the host store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"statement-importer/internal/models"
	"statement-importer/internal/store"
	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

var _ store.Store = (*Store)(nil)

// Store persists accounts, activities and quotes in SQLite
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger logger.Logger
}

// Open opens (or creates) the database at path and runs migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "open sqlite", err).WithContext("path", path)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.StoreError(errors.CodeStoreWrite, "set WAL mode", err).WithContext("path", path)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, errors.StoreError(errors.CodeStoreWrite, "enable foreign keys", err).WithContext("path", path)
	}
	db.SetMaxOpenConns(1)

	s := &Store{
		db:     db,
		logger: logger.GetGlobalLogger().WithComponent("sqlite_store"),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, errors.StoreError(errors.CodeStoreWrite, "migrate", err).WithContext("path", path)
	}

	s.logger.WithField("path", path).Info("SQLite store opened")
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id       TEXT PRIMARY KEY,
			name     TEXT NOT NULL,
			currency TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS activities (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT NOT NULL UNIQUE,
			account_id    TEXT NOT NULL REFERENCES accounts(id),
			activity_type TEXT NOT NULL,
			activity_date TEXT NOT NULL,
			asset_id      TEXT NOT NULL,
			quantity      TEXT,
			unit_price    TEXT,
			amount        TEXT,
			currency      TEXT,
			comment       TEXT,
			is_draft      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_account ON activities(account_id)`,

		`CREATE TABLE IF NOT EXISTS quotes (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			timestamp   TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			open        TEXT NOT NULL,
			high        TEXT NOT NULL,
			low         TEXT NOT NULL,
			close       TEXT NOT NULL,
			adjclose    TEXT NOT NULL,
			volume      TEXT NOT NULL,
			currency    TEXT NOT NULL,
			data_source TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_symbol_ts ON quotes(symbol, timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// ListAccounts returns the accounts sorted by name
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, currency FROM accounts ORDER BY name`)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "list accounts", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(&account.ID, &account.Name, &account.Currency); err != nil {
			return nil, errors.StoreError(errors.CodeStoreRead, "scan account", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "list accounts", err)
	}
	return accounts, nil
}

// CreateAccount stores an account, assigning an id when it has none
func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO accounts (id, name, currency) VALUES (?, ?, ?)`,
		account.ID, account.Name, account.Currency)
	if err != nil {
		return models.Account{}, errors.StoreError(errors.CodeStoreWrite, "create account", err).
			WithContext("account_id", account.ID)
	}
	return account, nil
}

// GetAll returns the activities of an account in insertion order
func (s *Store) GetAll(ctx context.Context, accountID string) ([]models.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, account_id, activity_type, activity_date, asset_id,
			quantity, unit_price, amount, currency, comment, is_draft
		FROM activities WHERE account_id = ? ORDER BY seq`, accountID)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "get activities", err).WithContext("account_id", accountID)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var (
			a                 models.Activity
			currency, comment sql.NullString
		)
		err := rows.Scan(&a.ID, &a.AccountID, &a.ActivityType, &a.ActivityDate, &a.AssetID,
			&a.Quantity, &a.UnitPrice, &a.Amount, &currency, &comment, &a.IsDraft)
		if err != nil {
			return nil, errors.StoreError(errors.CodeStoreRead, "scan activity", err)
		}
		a.Currency = currency.String
		a.Comment = comment.String
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "get activities", err)
	}
	return activities, nil
}

// SaveMany deletes then inserts inside one SQL transaction
func (s *Store) SaveMany(ctx context.Context, request models.ActivitySaveRequest) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreWrite, "begin save", err)
	}
	defer tx.Rollback()

	for _, id := range request.DeleteIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
			return nil, errors.StoreError(errors.CodeStoreWrite, "delete activity", err).WithContext("activity_id", id)
		}
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO activities
		(id, account_id, activity_type, activity_date, asset_id, quantity, unit_price, amount, currency, comment, is_draft)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreWrite, "prepare insert", err)
	}
	defer insert.Close()

	created := make([]models.Activity, 0, len(request.Creates))
	for _, c := range request.Creates {
		activity := models.Activity{ID: uuid.NewString(), AccountID: c.AccountID, Transaction: c.Transaction}
		_, err := insert.ExecContext(ctx, activity.ID, activity.AccountID, string(activity.ActivityType),
			activity.ActivityDate, activity.AssetID, activity.Quantity, activity.UnitPrice, activity.Amount,
			activity.Currency, activity.Comment, activity.IsDraft)
		if err != nil {
			return nil, errors.StoreError(errors.CodeStoreWrite, "insert activity", err).
				WithContext("transaction", activity.Transaction.String())
		}
		created = append(created, activity)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreWrite, "commit save", err)
	}

	s.logger.WithFields(logger.Fields{
		"deleted": len(request.DeleteIDs),
		"created": len(created),
	}).Debug("Saved activities")
	return created, nil
}

// GetHistory returns the quotes of a symbol in date order
func (s *Store) GetHistory(ctx context.Context, symbol string) ([]models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, symbol, timestamp, created_at, open, high, low, close,
			adjclose, volume, currency, data_source
		FROM quotes WHERE symbol = ? ORDER BY timestamp`, symbol)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "get quote history", err).WithContext("symbol", symbol)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var (
			q                    models.Quote
			timestamp, createdAt string
		)
		err := rows.Scan(&q.ID, &q.Symbol, &timestamp, &createdAt, &q.Open, &q.High, &q.Low, &q.Close,
			&q.AdjClose, &q.Volume, &q.Currency, &q.DataSource)
		if err != nil {
			return nil, errors.StoreError(errors.CodeStoreRead, "scan quote", err)
		}
		if q.Timestamp, err = time.Parse(time.RFC3339, timestamp); err != nil {
			return nil, errors.StoreError(errors.CodeStoreRead, "parse quote timestamp", err).WithContext("quote_id", q.ID)
		}
		if q.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, errors.StoreError(errors.CodeStoreRead, "parse quote creation time", err).WithContext("quote_id", q.ID)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StoreError(errors.CodeStoreRead, "get quote history", err)
	}
	return quotes, nil
}

// Update inserts the quote or replaces the one with the same id
func (s *Store) Update(ctx context.Context, symbol string, quote models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO quotes
		(id, symbol, timestamp, created_at, open, high, low, close, adjclose, volume, currency, data_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			symbol = excluded.symbol, timestamp = excluded.timestamp, created_at = excluded.created_at,
			open = excluded.open, high = excluded.high, low = excluded.low, close = excluded.close,
			adjclose = excluded.adjclose, volume = excluded.volume, currency = excluded.currency,
			data_source = excluded.data_source`,
		quote.ID, symbol, quote.Timestamp.UTC().Format(time.RFC3339), quote.CreatedAt.UTC().Format(time.RFC3339),
		quote.Open, quote.High, quote.Low, quote.Close, quote.AdjClose, quote.Volume,
		quote.Currency, string(quote.DataSource))
	if err != nil {
		return errors.StoreError(errors.CodeStoreWrite, "update quote", err).WithContext("quote_id", quote.ID)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}
