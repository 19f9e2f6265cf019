package kv

import (
	"context"
	"fmt"

	"github.com/sandevgo/lifecoach/internal/core"
)

// Accounts is the users collection: a JSON array rewritten as a whole.
type Accounts struct {
	store core.KVStore
}

func NewAccounts(store core.KVStore) *Accounts {
	return &Accounts{store: store}
}

func (a *Accounts) List(ctx context.Context) ([]core.Account, error) {
	var accounts []core.Account
	if _, err := load(ctx, a.store, core.UsersKey, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Find returns core.ErrNotFound when no account has the email.
func (a *Accounts) Find(ctx context.Context, email string) (*core.Account, error) {
	accounts, err := a.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Email == email {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("account %q: %w", email, core.ErrNotFound)
}

// Update loads the collection, applies fn to the matching account and writes
// the whole collection back. An error from fn aborts without writing.
func (a *Accounts) Update(ctx context.Context, email string, fn func(*core.Account) error) (*core.Account, error) {
	accounts, err := a.List(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range accounts {
		if accounts[i].Email == email {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("account %q: %w", email, core.ErrNotFound)
	}

	if err := fn(&accounts[idx]); err != nil {
		return nil, err
	}
	if err := save(ctx, a.store, core.UsersKey, accounts); err != nil {
		return nil, err
	}
	return &accounts[idx], nil
}

// Insert appends a new account. Registration lives outside this service;
// this exists for seeding and tests.
func (a *Accounts) Insert(ctx context.Context, acc core.Account) error {
	accounts, err := a.List(ctx)
	if err != nil {
		return err
	}
	for _, existing := range accounts {
		if existing.Email == acc.Email {
			return fmt.Errorf("account %q already exists: %w", acc.Email, core.ErrInvalidRequest)
		}
	}
	return save(ctx, a.store, core.UsersKey, append(accounts, acc))
}

func (a *Accounts) Count(ctx context.Context) (int, error) {
	accounts, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}
