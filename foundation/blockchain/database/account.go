package database

import (
	"crypto/ecdsa"
	"errors"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account represents information stored in the database for an individual
// account. Accounts are values: handlers construct a new account for every
// change instead of patching a shared one.
type Account struct {
	AccountID AccountID `json:"account_id" cbor:"1,keyasint"`
	Balance   uint64    `json:"balance" cbor:"2,keyasint"`
	Asset     Asset     `json:"asset,omitempty" cbor:"3,keyasint,omitempty"`
}

// NewAccount constructs a new account value for use.
func NewAccount(accountID AccountID, balance uint64) Account {
	return Account{
		AccountID: accountID,
		Balance:   balance,
	}
}

// Copy returns a deep copy of the account so the asset map is never shared.
func (a Account) Copy() Account {
	a.Asset = a.Asset.Copy()
	return a
}

// Equal compares every field of two accounts.
func (a Account) Equal(b Account) bool {
	return a.AccountID == b.AccountID &&
		a.Balance == b.Balance &&
		a.Asset.Equal(b.Asset)
}

// =============================================================================

// AccountID represents an account id that is used to sign transactions and is
// associated with transactions on the blockchain.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", errors.New("invalid account format")
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).String())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	return common.IsHexAddress(string(a))
}

// =============================================================================

// Asset is the open-ended, transaction-type specific state kept on an
// account. Numeric fields treat zero and absence as the same value, so
// setting a numeric field to zero removes it.
type Asset map[string]string

// Copy returns a copy of the asset map. A nil or empty asset copies to nil.
func (as Asset) Copy() Asset {
	if len(as) == 0 {
		return nil
	}
	return maps.Clone(as)
}

// Equal compares two asset maps treating nil and empty as the same.
func (as Asset) Equal(other Asset) bool {
	return maps.Equal(as, other)
}

// Has reports whether the field is present.
func (as Asset) Has(key string) bool {
	_, exists := as[key]
	return exists
}
