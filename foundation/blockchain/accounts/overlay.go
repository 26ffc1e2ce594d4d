package accounts

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// cached holds the committed value an account had when it was loaded.
type cached struct {
	account database.Account
	exists  bool
}

// Overlay is the staged account store for one batch. It is owned by a single
// processor call and is closed by Commit or Discard.
type Overlay struct {
	base Base

	mu     sync.RWMutex
	cache  map[database.AccountID]cached
	staged map[database.AccountID]database.Account
	order  []database.AccountID
	closed bool
}

// NewOverlay constructs an empty overlay on top of the base.
func NewOverlay(base Base) *Overlay {
	return &Overlay{
		base:   base,
		cache:  make(map[database.AccountID]cached),
		staged: make(map[database.AccountID]database.Account),
	}
}

// Cache loads the selected accounts from the base into the overlay. Accounts
// already cached are left alone so staged changes are never reloaded. Every
// selector that matches nothing in the base is reported as a NotFound error,
// even when another selector already created the account in this overlay, so
// the result does not depend on the order prepare calls run in.
func (o *Overlay) Cache(ctx context.Context, selectors ...Selector) error {
	var missing errs.List

	for _, sel := range selectors {
		o.mu.RLock()
		closed := o.closed
		c, loaded := o.cache[sel.AccountID]
		o.mu.RUnlock()

		if closed {
			return errClosed()
		}
		if loaded {
			if !c.exists && !sel.Create {
				missing = append(missing, errNotFound(sel.AccountID))
			}
			continue
		}

		account, exists, err := o.base.Lookup(ctx, sel.AccountID)
		if err != nil {
			return errs.Newf(errs.KindStorage, "", "account_id", "lookup account %s: %s", sel.AccountID, err)
		}

		if !exists {
			if !sel.Create {
				missing = append(missing, errNotFound(sel.AccountID))
				continue
			}
			account = database.NewAccount(sel.AccountID, 0)
		}

		o.mu.Lock()
		if _, loaded := o.cache[sel.AccountID]; !loaded {
			o.cache[sel.AccountID] = cached{account: account.Copy(), exists: exists}
		}
		o.mu.Unlock()
	}

	return missing.Err()
}

// Get returns a copy of the staged account. The account must have been
// included in a prior call to Cache even if it exists in the base.
func (o *Overlay) Get(accountID database.AccountID) (database.Account, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return database.Account{}, errClosed()
	}

	account, exists := o.current(accountID)
	if !exists {
		return database.Account{}, errUncached(accountID)
	}

	return account.Copy(), nil
}

// Set replaces the staged account. The record is replaced as a whole and the
// base is not touched.
func (o *Overlay) Set(account database.Account) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errClosed()
	}

	if _, loaded := o.cache[account.AccountID]; !loaded {
		return errUncached(account.AccountID)
	}

	if _, staged := o.staged[account.AccountID]; !staged {
		o.order = append(o.order, account.AccountID)
	}
	o.staged[account.AccountID] = account.Copy()

	return nil
}

// Lookup provides read-only access to the staged view of an account.
func (o *Overlay) Lookup(accountID database.AccountID) (database.Account, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	account, exists := o.current(accountID)
	if !exists {
		return database.Account{}, false
	}

	return account.Copy(), true
}

// Changes returns the accounts whose staged value differs from the value
// loaded from the base, in the order they were first set.
func (o *Overlay) Changes() []database.Account {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.changes()
}

// Commit writes every changed account to the base in one atomic call and
// closes the overlay.
func (o *Overlay) Commit(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errClosed()
	}
	o.closed = true

	changes := o.changes()
	if len(changes) == 0 {
		return nil
	}

	if err := o.base.Apply(ctx, changes); err != nil {
		return errs.Newf(errs.KindStorage, "", "", "commit %d accounts: %s", len(changes), err)
	}

	return nil
}

// Discard drops every staged change and closes the overlay. Calling Discard
// on a closed overlay does nothing.
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closed = true
	o.cache = make(map[database.AccountID]cached)
	o.staged = make(map[database.AccountID]database.Account)
	o.order = nil
}

// =============================================================================

// current returns the staged value, or the cached value when the account
// was never set. The caller must hold the lock.
func (o *Overlay) current(accountID database.AccountID) (database.Account, bool) {
	if account, staged := o.staged[accountID]; staged {
		return account, true
	}

	c, loaded := o.cache[accountID]
	if !loaded {
		return database.Account{}, false
	}

	return c.account, true
}

// changes must be called with the lock held.
func (o *Overlay) changes() []database.Account {
	var out []database.Account
	for _, accountID := range o.order {
		account := o.staged[accountID]
		orig := o.cache[accountID]

		// An account created on first reference and left at zero is not
		// worth writing.
		if orig.account.Equal(account) {
			continue
		}
		out = append(out, account.Copy())
	}

	return out
}

func errUncached(accountID database.AccountID) errs.ValidationError {
	return errs.New(errs.KindUncachedAccount, "", "account_id", fmt.Sprintf("account %s was not declared in prepare", accountID)).WithValues(accountID, "cached account")
}

func errNotFound(accountID database.AccountID) errs.ValidationError {
	return errs.New(errs.KindNotFound, "", "account_id", "account does not exist").WithValues(accountID, "existing account")
}

func errClosed() errs.ValidationError {
	return errs.New(errs.KindStoreClosed, "", "", "account overlay already committed or discarded")
}
