package asset

import (
	"math"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Update collects the new account values produced by one handler call.
// Every operation works on the values already collected, so an account that
// appears twice in a transaction is handled once, and nothing reaches the
// store until Write is called.
type Update struct {
	store    accounts.Store
	accounts map[database.AccountID]database.Account
	order    []database.AccountID
}

// Begin starts an update against the store.
func Begin(store accounts.Store) *Update {
	return &Update{
		store:    store,
		accounts: make(map[database.AccountID]database.Account),
	}
}

// Get returns the account as it stands in this update.
func (u *Update) Get(accountID database.AccountID) (database.Account, error) {
	if account, exists := u.accounts[accountID]; exists {
		return account.Copy(), nil
	}

	account, err := u.store.Get(accountID)
	if err != nil {
		return database.Account{}, err
	}

	return account, nil
}

// Put replaces the account in this update.
func (u *Update) Put(account database.Account) {
	if _, exists := u.accounts[account.AccountID]; !exists {
		u.order = append(u.order, account.AccountID)
	}
	u.accounts[account.AccountID] = account.Copy()
}

// Write stages every account of the update in the store.
func (u *Update) Write() error {
	for _, accountID := range u.order {
		if err := u.store.Set(u.accounts[accountID]); err != nil {
			return err
		}
	}

	return nil
}

// =============================================================================

// Debit removes the amount from the spendable balance.
func (u *Update) Debit(accountID database.AccountID, amount uint64) error {
	account, err := u.Get(accountID)
	if err != nil {
		return err
	}

	if account.Balance < amount {
		return errs.Newf(errs.KindInsufficientFunds, "", "balance", "account %s cannot pay %d", accountID, amount).WithValues(account.Balance, ">= amount")
	}

	account.Balance -= amount
	u.Put(account)

	return nil
}

// Credit adds the amount to the spendable balance.
func (u *Update) Credit(accountID database.AccountID, amount uint64) error {
	account, err := u.Get(accountID)
	if err != nil {
		return err
	}

	if account.Balance > math.MaxUint64-amount {
		return errs.Newf(errs.KindPreconditionFailed, "", "balance", "account %s balance overflow", accountID).WithValues(account.Balance, "room for amount")
	}

	account.Balance += amount
	u.Put(account)

	return nil
}

// Lock moves the amount from the spendable balance into the locked amount.
func (u *Update) Lock(accountID database.AccountID, amount uint64) error {
	account, err := u.Get(accountID)
	if err != nil {
		return err
	}

	if account.Balance < amount {
		return errs.Newf(errs.KindInsufficientFunds, "", "balance", "account %s cannot lock %d", accountID, amount).WithValues(account.Balance, ">= lock amount")
	}

	locked, err := u.locked(account)
	if err != nil {
		return err
	}

	account.Balance -= amount
	account.Asset = account.Asset.WithUint64(FieldLockedAmount, locked+amount)
	u.Put(account)

	return nil
}

// Unlock moves the amount from the locked amount back into the spendable
// balance.
func (u *Update) Unlock(accountID database.AccountID, amount uint64) error {
	if err := u.Forfeit(accountID, amount); err != nil {
		return err
	}

	return u.Credit(accountID, amount)
}

// Forfeit removes the amount from the locked amount without returning it to
// the spendable balance. The caller credits it elsewhere.
func (u *Update) Forfeit(accountID database.AccountID, amount uint64) error {
	account, err := u.Get(accountID)
	if err != nil {
		return err
	}

	locked, err := u.locked(account)
	if err != nil {
		return err
	}

	if locked < amount {
		return errs.Newf(errs.KindPreconditionFailed, "", "asset."+FieldLockedAmount, "account %s has not locked %d", accountID, amount).WithValues(locked, ">= amount")
	}

	account.Asset = account.Asset.WithUint64(FieldLockedAmount, locked-amount)
	u.Put(account)

	return nil
}

// Reinstate adds the amount to the locked amount without taking it from the
// spendable balance. It is the inverse of Forfeit.
func (u *Update) Reinstate(accountID database.AccountID, amount uint64) error {
	account, err := u.Get(accountID)
	if err != nil {
		return err
	}

	locked, err := u.locked(account)
	if err != nil {
		return err
	}

	account.Asset = account.Asset.WithUint64(FieldLockedAmount, locked+amount)
	u.Put(account)

	return nil
}

// Trust returns the trust of the account, zero when it was never set.
func (u *Update) Trust(accountID database.AccountID) (int64, error) {
	account, err := u.Get(accountID)
	if err != nil {
		return 0, err
	}

	trust, err := account.Asset.Int64(FieldTrust)
	if err != nil {
		return 0, errs.New(errs.KindPreconditionFailed, "", "asset."+FieldTrust, err.Error())
	}

	return trust, nil
}

// AdjustTrust adds the delta to the trust of the account.
func (u *Update) AdjustTrust(accountID database.AccountID, delta int64) error {
	trust, err := u.Trust(accountID)
	if err != nil {
		return err
	}

	account, err := u.Get(accountID)
	if err != nil {
		return err
	}

	account.Asset = account.Asset.WithInt64(FieldTrust, trust+delta)
	u.Put(account)

	return nil
}

// ChargeFee takes the fee from the sender and disposes of it per policy.
func (u *Update) ChargeFee(policy FeePolicy, tx database.Tx) error {
	if err := u.Debit(tx.SenderID, tx.Fee); err != nil {
		return err
	}

	if policy.Mode == FeePool {
		return u.Credit(policy.Pool, tx.Fee)
	}

	return nil
}

// RefundFee returns the fee to the sender. It is the inverse of ChargeFee;
// a burned fee is minted back.
func (u *Update) RefundFee(policy FeePolicy, tx database.Tx) error {
	if policy.Mode == FeePool {
		if err := u.Debit(policy.Pool, tx.Fee); err != nil {
			return err
		}
	}

	return u.Credit(tx.SenderID, tx.Fee)
}

func (u *Update) locked(account database.Account) (uint64, error) {
	locked, err := account.Asset.Uint64(FieldLockedAmount)
	if err != nil {
		return 0, errs.New(errs.KindPreconditionFailed, "", "asset."+FieldLockedAmount, err.Error())
	}
	return locked, nil
}
