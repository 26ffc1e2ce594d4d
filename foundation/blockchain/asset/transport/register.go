package transport

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// RegisterPayload is the asset payload of a packet registration. The packet
// account is the transaction recipient.
type RegisterPayload struct {
	Recipient database.AccountID `json:"recipient" validate:"required,account"`
	Postage   uint64             `json:"postage" validate:"gte=1"`
	Security  uint64             `json:"security" validate:"gte=1"`
	MinTrust  int64              `json:"minTrust"`
}

// Register processes packet registrations. The sender owns the packet and
// pays the postage.
type Register struct {
	fees asset.FeePolicy
}

// NewRegister constructs a packet registration handler.
func NewRegister(fees asset.FeePolicy) *Register {
	return &Register{
		fees: fees,
	}
}

// Prepare caches the owner and the packet.
func (h *Register) Prepare(ctx context.Context, tx database.Tx, store accounts.Cacher) error {
	selectors := []accounts.Selector{
		accounts.Existing(tx.SenderID),
		accounts.OrNew(tx.RecipientID),
	}

	return asset.Cache(ctx, store, append(selectors, h.fees.Selectors()...)...)
}

// ValidateAsset checks the delivery terms.
func (h *Register) ValidateAsset(tx database.Tx) errs.List {
	var payload RegisterPayload
	list := asset.Check(tx, asset.TypeRegisterPacket, &payload)
	list = append(list, requirePacket(tx)...)

	if tx.RecipientID != "" && tx.RecipientID == tx.SenderID {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "recipient_id", "the owner cannot be the packet").WithValues(tx.RecipientID, "packet account id"))
	}

	if payload.Recipient != "" && payload.Recipient == tx.RecipientID {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "asset.recipient", "the packet cannot be its own recipient").WithValues(payload.Recipient, "other account"))
	}

	if tx.Amount != 0 {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount must be zero, the postage is in the asset").WithValues(tx.Amount, "eq=0"))
	}

	return list
}

// ApplyAsset locks the postage on the packet and marks it pending.
func (h *Register) ApplyAsset(tx database.Tx, store accounts.Store) errs.List {
	var payload RegisterPayload
	if err := tx.DecodeAsset(&payload); err != nil {
		return errs.Of(errs.New(errs.KindStructural, tx.ID(), "asset", err.Error()))
	}

	u := asset.Begin(store)

	if _, _, list := getPacket(tx, u, tx.RecipientID, ""); list != nil {
		return list
	}

	if err := u.Debit(tx.SenderID, payload.Postage); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.ChargeFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.Reinstate(tx.RecipientID, payload.Postage); err != nil {
		return asset.Errors(tx, err)
	}

	packet, err := u.Get(tx.RecipientID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	packet.Asset = packet.Asset.
		WithString(FieldStatus, StatusPending).
		WithString(FieldOwner, string(tx.SenderID)).
		WithString(FieldRecipient, string(payload.Recipient)).
		WithUint64(FieldPostage, payload.Postage).
		WithUint64(FieldSecurity, payload.Security).
		WithInt64(FieldMinTrust, payload.MinTrust)
	u.Put(packet)

	return asset.Errors(tx, u.Write())
}

// UndoAsset returns the postage to the owner and clears the packet.
func (h *Register) UndoAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	p, packet, list := getPacket(tx, u, tx.RecipientID, StatusPending)
	if list != nil {
		return list
	}

	if p.Owner != tx.SenderID {
		return asset.Precondition(tx, "asset."+FieldOwner, p.Owner, string(tx.SenderID), "packet %s belongs to another owner", p.ID)
	}

	packet.Asset = packet.Asset.Without(FieldStatus, FieldOwner, FieldRecipient, FieldPostage, FieldSecurity, FieldMinTrust)
	u.Put(packet)

	if err := u.Forfeit(p.ID, p.Postage); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.RefundFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.Credit(tx.SenderID, p.Postage); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}
