// Package memory implements the host store in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"statement-importer/internal/models"
	"statement-importer/internal/store"
	"statement-importer/pkg/errors"
)

var _ store.Store = (*Store)(nil)

// Store keeps accounts, activities and quotes in maps
type Store struct {
	mu         sync.Mutex
	accounts   map[string]models.Account
	activities []models.Activity
	quotes     map[string]map[string]models.Quote // symbol -> id -> quote
	updates    int
}

// New creates an empty store
func New() *Store {
	return &Store{
		accounts: make(map[string]models.Account),
		quotes:   make(map[string]map[string]models.Quote),
	}
}

// ListAccounts returns the accounts sorted by name
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// CreateAccount stores an account, assigning an id when it has none
func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if _, exists := s.accounts[account.ID]; exists {
		return models.Account{}, errors.StoreError(errors.CodeStoreWrite, "create account",
			fmt.Errorf("account %s already exists", account.ID))
	}
	s.accounts[account.ID] = account
	return account, nil
}

// GetAll returns the activities of an account in insertion order
func (s *Store) GetAll(ctx context.Context, accountID string) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Activity
	for _, activity := range s.activities {
		if activity.AccountID == accountID {
			out = append(out, activity)
		}
	}
	return out, nil
}

// SaveMany deletes then inserts under one lock
func (s *Store) SaveMany(ctx context.Context, request models.ActivitySaveRequest) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, create := range request.Creates {
		if _, ok := s.accounts[create.AccountID]; !ok {
			return nil, errors.StoreError(errors.CodeStoreWrite, "save activities",
				fmt.Errorf("account %s not found", create.AccountID))
		}
	}

	deleted := make(map[string]bool, len(request.DeleteIDs))
	for _, id := range request.DeleteIDs {
		deleted[id] = true
	}

	kept := s.activities[:0:0]
	for _, activity := range s.activities {
		if !deleted[activity.ID] {
			kept = append(kept, activity)
		}
	}

	created := make([]models.Activity, 0, len(request.Creates))
	for _, create := range request.Creates {
		created = append(created, models.Activity{
			ID:          uuid.NewString(),
			AccountID:   create.AccountID,
			Transaction: create.Transaction,
		})
	}

	s.activities = append(kept, created...)
	return created, nil
}

// GetHistory returns the quotes of a symbol in date order
func (s *Store) GetHistory(ctx context.Context, symbol string) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes := make([]models.Quote, 0, len(s.quotes[symbol]))
	for _, quote := range s.quotes[symbol] {
		quotes = append(quotes, quote)
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Timestamp.Before(quotes[j].Timestamp) })
	return quotes, nil
}

// Update inserts or replaces a quote by id
func (s *Store) Update(ctx context.Context, symbol string, quote models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++

	if s.quotes[symbol] == nil {
		s.quotes[symbol] = make(map[string]models.Quote)
	}
	s.quotes[symbol][quote.ID] = quote
	return nil
}

// Updates returns the number of Update calls made
func (s *Store) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
