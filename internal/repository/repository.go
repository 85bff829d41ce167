package repository

import (
	"context"

	"github.com/splax/accountsvc/internal/domain"
)

// Store persists accounts. Implementations map a missing row to ErrNotFound
// and leave all other failures wrapped with operation context.
type Store interface {
	// Create inserts the account and assigns its ID.
	Create(ctx context.Context, account *domain.Account) error
	// Get returns a single account by id.
	Get(ctx context.Context, id int64) (domain.Account, error)
	// Update replaces every mutable field of an existing account.
	Update(ctx context.Context, account *domain.Account) error
	// Delete removes an account by id.
	Delete(ctx context.Context, id int64) error
	// List returns all accounts. Callers must not rely on ordering.
	List(ctx context.Context) ([]domain.Account, error)
}
