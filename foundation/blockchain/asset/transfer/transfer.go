// Package transfer implements the balance transfer transaction types. The
// plain transfer moves the amount from the sender to the recipient. The
// bonus transfer also mints a cashback bonus for the recipient.
package transfer

import (
	"context"
	"math"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// DefaultBonusPercent is the bonus paid by the bonus transfer when the
// ledger doesn't configure one.
const DefaultBonusPercent = 50

// Handler processes transfer transactions.
type Handler struct {
	typ          database.TxType
	fees         asset.FeePolicy
	bonusPercent uint64
}

// New constructs a handler for plain transfers.
func New(fees asset.FeePolicy) *Handler {
	return &Handler{
		typ:  asset.TypeTransfer,
		fees: fees,
	}
}

// NewWithBonus constructs a handler for transfers where the recipient also
// receives bonusPercent of the amount as newly minted funds.
func NewWithBonus(fees asset.FeePolicy, bonusPercent uint64) *Handler {
	return &Handler{
		typ:          asset.TypeTransferBonus,
		fees:         fees,
		bonusPercent: bonusPercent,
	}
}

// Bonus returns the bonus the recipient receives for the amount.
func (h *Handler) Bonus(amount uint64) uint64 {
	return amount * h.bonusPercent / 100
}

// Prepare caches the sender and the recipient. The recipient is created on
// first reference.
func (h *Handler) Prepare(ctx context.Context, tx database.Tx, store accounts.Cacher) error {
	selectors := []accounts.Selector{
		accounts.Existing(tx.SenderID),
		accounts.OrNew(tx.RecipientID),
	}

	return asset.Cache(ctx, store, append(selectors, h.fees.Selectors()...)...)
}

// ValidateAsset checks the transfer fields.
func (h *Handler) ValidateAsset(tx database.Tx) errs.List {
	list := asset.Check(tx, h.typ, nil)

	if tx.RecipientID == "" {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "recipient_id", "recipient_id is a required field").WithValues(tx.RecipientID, "account id"))
	}

	if tx.Amount == 0 {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount must be greater than zero").WithValues(tx.Amount, "gt=0"))
	}

	if h.bonusPercent > 0 && tx.Amount > math.MaxUint64/h.bonusPercent {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount too large to compute the bonus").WithValues(tx.Amount, "smaller amount"))
	}

	return list
}

// ApplyAsset moves the amount and charges the fee.
func (h *Handler) ApplyAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	if err := u.Debit(tx.SenderID, tx.Amount); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.ChargeFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.Credit(tx.RecipientID, tx.Amount+h.Bonus(tx.Amount)); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}

// UndoAsset takes the amount and any bonus back from the recipient and
// refunds the sender.
func (h *Handler) UndoAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	if err := u.Debit(tx.RecipientID, tx.Amount+h.Bonus(tx.Amount)); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.RefundFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.Credit(tx.SenderID, tx.Amount); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}
