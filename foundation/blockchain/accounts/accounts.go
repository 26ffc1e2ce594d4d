// Package accounts maintains the staged view of account information used while
// a batch of transactions is processed. Reads and writes go to an overlay on
// top of the committed accounts held by a Base; nothing reaches the Base
// until the overlay is committed.
package accounts

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Base interface represents the behavior required to be implemented by any
// package providing the committed set of accounts. Apply must be atomic: either
// every account is written or none is.
type Base interface {
	Lookup(ctx context.Context, accountID database.AccountID) (database.Account, bool, error)
	Apply(ctx context.Context, accounts []database.Account) error
	Accounts(ctx context.Context) ([]database.Account, error)
}

// Selector identifies an account to load into the overlay. When Create is set
// an account that does not exist yet is staged with a zero balance, which is
// how accounts come into existence on first reference.
type Selector struct {
	AccountID database.AccountID
	Create    bool
}

// Existing returns a selector for an account that must already exist.
func Existing(accountID database.AccountID) Selector {
	return Selector{AccountID: accountID}
}

// OrNew returns a selector that creates the account when it doesn't exist.
func OrNew(accountID database.AccountID) Selector {
	return Selector{AccountID: accountID, Create: true}
}

// Cacher represents the behavior a handler needs to declare and read its
// account dependencies during prepare.
type Cacher interface {
	Cache(ctx context.Context, selectors ...Selector) error
	Get(accountID database.AccountID) (database.Account, error)
}

// Store represents the behavior a handler needs to read and stage accounts
// during apply and undo.
type Store interface {
	Get(accountID database.AccountID) (database.Account, error)
	Set(account database.Account) error
}

// Lookup represents read-only access to the staged accounts.
type Lookup interface {
	Lookup(accountID database.AccountID) (database.Account, bool)
}
