package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/splax/accountsvc/internal/domain"
	"github.com/splax/accountsvc/internal/repository"
)

func testAccount(name string) domain.Account {
	return domain.Account{
		Name:        name,
		Email:       name + "@example.com",
		Address:     "123 Main St",
		PhoneNumber: "555-1212",
		DateJoined:  domain.NewDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	store := New()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		account := testAccount(fmt.Sprintf("user-%d", i))
		if err := store.Create(ctx, &account); err != nil {
			t.Fatalf("Create error: %v", err)
		}
		if account.ID != i {
			t.Fatalf("expected id %d, got %d", i, account.ID)
		}
	}
}

func TestGetReturnsStoredAccount(t *testing.T) {
	store := New()
	ctx := context.Background()

	account := testAccount("john")
	if err := store.Create(ctx, &account); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := store.Get(ctx, account.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != account {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestGetUnknownID(t *testing.T) {
	store := New()

	if _, err := store.Get(context.Background(), 99); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want repository.ErrNotFound, got %v", err)
	}
}

func TestUpdateReplacesFields(t *testing.T) {
	store := New()
	ctx := context.Background()

	account := testAccount("john")
	if err := store.Create(ctx, &account); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	account.Name = "Johnny"
	if err := store.Update(ctx, &account); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	got, err := store.Get(ctx, account.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Name != "Johnny" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	store := New()

	account := testAccount("ghost")
	account.ID = 99
	if err := store.Update(context.Background(), &account); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("want repository.ErrNotFound, got %v", err)
	}
}

func TestUpdateMissingID(t *testing.T) {
	store := New()

	account := testAccount("john")
	if err := store.Update(context.Background(), &account); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want domain.ErrValidation, got %v", err)
	}
}

func TestDeleteRemovesAccount(t *testing.T) {
	store := New()
	ctx := context.Background()

	account := testAccount("john")
	if err := store.Create(ctx, &account); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := store.Delete(ctx, account.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := store.Get(ctx, account.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("account should be gone, got %v", err)
	}
	if err := store.Delete(ctx, account.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete should miss, got %v", err)
	}
}

func TestListInsertionOrder(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		account := testAccount(name)
		if err := store.Create(ctx, &account); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	second, err := store.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if err := store.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}

	accounts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("unexpected count: %d", len(accounts))
	}
	if accounts[0].Name != "first" || accounts[1].Name != "third" {
		t.Fatalf("unexpected order: %+v", accounts)
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	store := New()

	accounts, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if accounts == nil || len(accounts) != 0 {
		t.Fatalf("expected empty slice, got %#v", accounts)
	}
}

func TestConcurrentCreates(t *testing.T) {
	store := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			account := testAccount(fmt.Sprintf("user-%d", n))
			if err := store.Create(ctx, &account); err != nil {
				t.Errorf("Create error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	accounts, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(accounts) != 20 {
		t.Fatalf("expected 20 accounts, got %d", len(accounts))
	}
	seen := make(map[int64]bool, len(accounts))
	for _, account := range accounts {
		if seen[account.ID] {
			t.Fatalf("duplicate id %d", account.ID)
		}
		seen[account.ID] = true
	}
}
