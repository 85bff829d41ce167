package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/splax/accountsvc/internal/domain"
	"github.com/splax/accountsvc/internal/repository"
)

// Store keeps accounts in process memory. It backs the router tests and
// local runs without a database, with the same semantics as the Postgres
// store.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	items  map[int64]domain.Account
}

// New constructs an empty Store.
func New() *Store {
	return &Store{items: make(map[int64]domain.Account)}
}

var _ repository.Store = (*Store)(nil)

// Create assigns the next id and records the account.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	account.ID = s.nextID
	s.items[account.ID] = *account
	s.order = append(s.order, account.ID)
	return nil
}

// Get returns a stored account by id.
func (s *Store) Get(ctx context.Context, id int64) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.items[id]
	if !ok {
		return domain.Account{}, repository.ErrNotFound
	}
	return account, nil
}

// Update replaces an existing account.
func (s *Store) Update(ctx context.Context, account *domain.Account) error {
	if account.ID == 0 {
		return fmt.Errorf("%w: account id not assigned", domain.ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[account.ID]; !ok {
		return repository.ErrNotFound
	}
	s.items[account.ID] = *account
	return nil
}

// Delete removes an account by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all accounts in insertion order.
func (s *Store) List(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]domain.Account, 0, len(s.order))
	for _, id := range s.order {
		accounts = append(accounts, s.items[id])
	}
	return accounts, nil
}
