// Package asset defines the contract every transaction type implements to
// validate, apply and undo its effect on the staged account store.
package asset

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Set of transaction types handled by the reference handlers.
const (
	TypeTransfer        database.TxType = 0
	TypeMultisig        database.TxType = 4
	TypeHello           database.TxType = 10
	TypeTransferBonus   database.TxType = 11
	TypeRegisterPacket  database.TxType = 20
	TypeStartTransport  database.TxType = 21
	TypeFinishTransport database.TxType = 22
	TypeLightAlarm      database.TxType = 23
)

// Set of asset fields shared by more than one handler.
const (
	FieldLockedAmount = "lockedAmount"
	FieldTrust        = "trust"
)

// Handler interface declares the behavior a transaction type must implement.
// ApplyAsset must check every precondition before staging its first change
// and UndoAsset must restore every field ApplyAsset touched, including
// fields that were absent before.
type Handler interface {

	// Prepare declares every account the handler will read or write by
	// caching it. It may read the accounts it cached to find more.
	Prepare(ctx context.Context, tx database.Tx, store accounts.Cacher) error

	// ValidateAsset checks the transaction fields alone. It never reads
	// account state.
	ValidateAsset(tx database.Tx) errs.List

	// ApplyAsset stages the effect of the transaction.
	ApplyAsset(tx database.Tx, store accounts.Store) errs.List

	// UndoAsset stages the inverse of ApplyAsset.
	UndoAsset(tx database.Tx, store accounts.Store) errs.List
}
