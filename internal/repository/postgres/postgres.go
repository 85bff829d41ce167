package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/splax/accountsvc/internal/domain"
	"github.com/splax/accountsvc/internal/repository"
)

// DBTX is the slice of database/sql the store needs. *sql.DB and *sql.Tx
// both satisfy it, as do test doubles.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements repository.Store on PostgreSQL.
type Store struct {
	db DBTX
}

// New constructs a Store.
func New(db DBTX) *Store {
	return &Store{db: db}
}

var _ repository.Store = (*Store)(nil)

// Create inserts an account and assigns its id from the sequence.
func (s *Store) Create(ctx context.Context, account *domain.Account) error {
	const query = `INSERT INTO accounts (name, email, address, phone_number, date_joined)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	row := s.db.QueryRowContext(ctx, query, account.Name, account.Email, account.Address, account.PhoneNumber, account.DateJoined)
	if err := row.Scan(&account.ID); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Get fetches a single account by id.
func (s *Store) Get(ctx context.Context, id int64) (domain.Account, error) {
	const query = `SELECT id, name, email, address, phone_number, date_joined
		FROM accounts WHERE id = $1`
	var a domain.Account
	row := s.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Address, &a.PhoneNumber, &a.DateJoined); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, repository.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// Update replaces all mutable fields of an existing account.
func (s *Store) Update(ctx context.Context, account *domain.Account) error {
	if account.ID == 0 {
		return fmt.Errorf("%w: account id not assigned", domain.ErrValidation)
	}
	const query = `UPDATE accounts
		SET name = $2, email = $3, address = $4, phone_number = $5, date_joined = $6
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, account.ID, account.Name, account.Email, account.Address, account.PhoneNumber, account.DateJoined)
	if err != nil {
		return fmt.Errorf("update account %d: %w", account.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account %d: %w", account.ID, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an account by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns every stored account. Rows come back ordered by id for
// stable scans, but callers must not treat the order as part of the API.
func (s *Store) List(ctx context.Context) ([]domain.Account, error) {
	const query = `SELECT id, name, email, address, phone_number, date_joined
		FROM accounts ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Address, &a.PhoneNumber, &a.DateJoined); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}
