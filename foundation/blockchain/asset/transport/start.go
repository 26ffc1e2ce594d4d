package transport

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Start processes the transaction where a carrier picks up a pending packet.
// The sender is the carrier and the recipient is the packet.
type Start struct {
	fees asset.FeePolicy
}

// NewStart constructs a start transport handler.
func NewStart(fees asset.FeePolicy) *Start {
	return &Start{
		fees: fees,
	}
}

// Prepare caches the carrier and the packet.
func (h *Start) Prepare(ctx context.Context, tx database.Tx, store accounts.Cacher) error {
	selectors := []accounts.Selector{
		accounts.Existing(tx.SenderID),
		accounts.OrNew(tx.RecipientID),
	}

	return asset.Cache(ctx, store, append(selectors, h.fees.Selectors()...)...)
}

// ValidateAsset checks the packet is named.
func (h *Start) ValidateAsset(tx database.Tx) errs.List {
	list := asset.Check(tx, asset.TypeStartTransport, nil)
	list = append(list, requirePacket(tx)...)

	if tx.Amount != 0 {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount must be zero, the security is set by the packet").WithValues(tx.Amount, "eq=0"))
	}

	return list
}

// ApplyAsset locks the carrier security and marks the packet ongoing.
func (h *Start) ApplyAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	p, _, list := getPacket(tx, u, tx.RecipientID, StatusPending)
	if list != nil {
		return list
	}

	trust, err := u.Trust(tx.SenderID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	if trust < p.MinTrust {
		return asset.Precondition(tx, "asset."+asset.FieldTrust, trust, ">= minTrust", "carrier %s is not trusted enough for packet %s", tx.SenderID, p.ID)
	}

	if err := u.Lock(tx.SenderID, p.Security); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.ChargeFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	packet, err := u.Get(p.ID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	packet.Asset = packet.Asset.
		WithString(FieldStatus, StatusOngoing).
		WithString(FieldCarrier, string(tx.SenderID))
	u.Put(packet)

	return asset.Errors(tx, u.Write())
}

// UndoAsset releases the carrier security and marks the packet pending.
func (h *Start) UndoAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	p, packet, list := getPacket(tx, u, tx.RecipientID, StatusOngoing)
	if list != nil {
		return list
	}

	if p.Carrier != tx.SenderID {
		return asset.Precondition(tx, "asset."+FieldCarrier, p.Carrier, string(tx.SenderID), "packet %s is carried by another account", p.ID)
	}

	packet.Asset = packet.Asset.
		WithString(FieldStatus, StatusPending).
		Without(FieldCarrier)
	u.Put(packet)

	if err := u.RefundFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.Unlock(tx.SenderID, p.Security); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}
