// Package hello implements the transaction that stores a greeting on the
// sender account. An account can only register one greeting.
package hello

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Field is the asset field holding the greeting.
const Field = "hello"

// Payload is the asset payload of a hello transaction.
type Payload struct {
	Hello string `json:"hello" validate:"required,max=64"`
}

// Handler processes hello transactions.
type Handler struct {
	fees asset.FeePolicy
}

// New constructs a hello handler.
func New(fees asset.FeePolicy) *Handler {
	return &Handler{
		fees: fees,
	}
}

// Prepare caches the sender.
func (h *Handler) Prepare(ctx context.Context, tx database.Tx, store accounts.Cacher) error {
	selectors := []accounts.Selector{
		accounts.Existing(tx.SenderID),
	}

	return asset.Cache(ctx, store, append(selectors, h.fees.Selectors()...)...)
}

// ValidateAsset checks the greeting.
func (h *Handler) ValidateAsset(tx database.Tx) errs.List {
	var payload Payload
	list := asset.Check(tx, asset.TypeHello, &payload)

	if tx.Amount != 0 {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount must be zero").WithValues(tx.Amount, "eq=0"))
	}

	return list
}

// ApplyAsset stores the greeting on the sender.
func (h *Handler) ApplyAsset(tx database.Tx, store accounts.Store) errs.List {
	var payload Payload
	if err := tx.DecodeAsset(&payload); err != nil {
		return errs.Of(errs.New(errs.KindStructural, tx.ID(), "asset", err.Error()))
	}

	u := asset.Begin(store)

	sender, err := u.Get(tx.SenderID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	if sender.Asset.Has(Field) {
		return asset.Precondition(tx, "asset."+Field, sender.Asset.String(Field), "no greeting", "account %s already has a greeting", tx.SenderID)
	}

	if err := u.ChargeFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	sender, _ = u.Get(tx.SenderID)
	sender.Asset = sender.Asset.WithString(Field, payload.Hello)
	u.Put(sender)

	return asset.Errors(tx, u.Write())
}

// UndoAsset removes the greeting and refunds the fee.
func (h *Handler) UndoAsset(tx database.Tx, store accounts.Store) errs.List {
	var payload Payload
	if err := tx.DecodeAsset(&payload); err != nil {
		return errs.Of(errs.New(errs.KindStructural, tx.ID(), "asset", err.Error()))
	}

	u := asset.Begin(store)

	sender, err := u.Get(tx.SenderID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	if sender.Asset.String(Field) != payload.Hello {
		return asset.Precondition(tx, "asset."+Field, sender.Asset.String(Field), payload.Hello, "account %s does not carry this greeting", tx.SenderID)
	}

	sender.Asset = sender.Asset.Without(Field)
	u.Put(sender)

	if err := u.RefundFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}
