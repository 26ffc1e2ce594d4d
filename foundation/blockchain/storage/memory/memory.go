// Package memory implements the committed account set in memory using a map.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Memory represents the in-memory implementation of the committed account
// set. This implements the accounts.Base interface.
type Memory struct {
	mu       sync.RWMutex
	accounts map[database.AccountID]database.Account
}

// New constructs a Memory value for use seeded with the specified accounts.
func New(accounts ...database.Account) *Memory {
	m := Memory{
		accounts: make(map[database.AccountID]database.Account),
	}

	for _, account := range accounts {
		m.accounts[account.AccountID] = account.Copy()
	}

	return &m
}

// FromBalances constructs a Memory value from a balance sheet, like the one
// found in the genesis file.
func FromBalances(balances map[database.AccountID]uint64) *Memory {
	m := New()
	for accountID, balance := range balances {
		m.accounts[accountID] = database.NewAccount(accountID, balance)
	}

	return m
}

// Lookup returns a copy of the committed account.
func (m *Memory) Lookup(ctx context.Context, accountID database.AccountID) (database.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, exists := m.accounts[accountID]
	if !exists {
		return database.Account{}, false, nil
	}

	return account.Copy(), true, nil
}

// Apply writes the accounts under a single write lock.
func (m *Memory) Apply(ctx context.Context, accounts []database.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, account := range accounts {
		m.accounts[account.AccountID] = account.Copy()
	}

	return nil
}

// Accounts returns a copy of every committed account sorted by account id.
func (m *Memory) Accounts(ctx context.Context) ([]database.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]database.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		out = append(out, account.Copy())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].AccountID < out[j].AccountID
	})

	return out, nil
}

// Copy makes a copy of the current accounts keyed by account id.
func (m *Memory) Copy() map[database.AccountID]database.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cpy := make(map[database.AccountID]database.Account, len(m.accounts))
	for accountID, account := range m.accounts {
		cpy[accountID] = account.Copy()
	}

	return cpy
}
