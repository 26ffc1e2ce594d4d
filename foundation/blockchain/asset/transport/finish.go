package transport

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// FinishPayload is the asset payload of a finish transport transaction. The
// carrier is named so it can be cached before the packet state is known.
type FinishPayload struct {
	Status    string             `json:"status" validate:"required,oneof=success fail"`
	CarrierID database.AccountID `json:"carrierId" validate:"required,account"`
}

// Finish processes the transaction where the packet recipient reports the
// outcome of the delivery. The sender is the packet recipient and the
// transaction recipient is the packet.
type Finish struct {
	fees asset.FeePolicy
}

// NewFinish constructs a finish transport handler.
func NewFinish(fees asset.FeePolicy) *Finish {
	return &Finish{
		fees: fees,
	}
}

// Prepare caches the packet recipient, the packet and the carrier.
func (h *Finish) Prepare(ctx context.Context, tx database.Tx, store accounts.Cacher) error {
	selectors := []accounts.Selector{
		accounts.Existing(tx.SenderID),
		accounts.OrNew(tx.RecipientID),
	}

	var payload FinishPayload
	if err := tx.DecodeAsset(&payload); err == nil {
		selectors = append(selectors, accounts.OrNew(payload.CarrierID))
	}

	return asset.Cache(ctx, store, append(selectors, h.fees.Selectors()...)...)
}

// ValidateAsset checks the reported outcome.
func (h *Finish) ValidateAsset(tx database.Tx) errs.List {
	var payload FinishPayload
	list := asset.Check(tx, asset.TypeFinishTransport, &payload)
	list = append(list, requirePacket(tx)...)

	if tx.Amount != 0 {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount must be zero").WithValues(tx.Amount, "eq=0"))
	}

	return list
}

// ApplyAsset settles the delivery. On success the carrier gets its security
// back, earns the postage and gains trust. On failure the recipient receives
// the security and the postage and the carrier loses trust.
func (h *Finish) ApplyAsset(tx database.Tx, store accounts.Store) errs.List {
	var payload FinishPayload
	if err := tx.DecodeAsset(&payload); err != nil {
		return errs.Of(errs.New(errs.KindStructural, tx.ID(), "asset", err.Error()))
	}

	u := asset.Begin(store)

	p, _, list := getPacket(tx, u, tx.RecipientID, StatusOngoing, StatusAlarm)
	if list != nil {
		return list
	}

	if list := checkParties(tx, p, payload); list != nil {
		return list
	}

	if err := u.ChargeFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.Forfeit(p.ID, p.Postage); err != nil {
		return asset.Errors(tx, err)
	}

	var err error
	switch payload.Status {
	case StatusSuccess:
		err = settle(
			func() error { return u.Unlock(p.Carrier, p.Security) },
			func() error { return u.Credit(p.Carrier, p.Postage) },
			func() error { return u.AdjustTrust(p.Carrier, 1) },
		)

	case StatusFail:
		err = settle(
			func() error { return u.Forfeit(p.Carrier, p.Security) },
			func() error { return u.Credit(tx.SenderID, p.Security+p.Postage) },
			func() error { return u.AdjustTrust(p.Carrier, -1) },
		)
	}
	if err != nil {
		return asset.Errors(tx, err)
	}

	packet, err := u.Get(p.ID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	packet.Asset = packet.Asset.WithString(FieldStatus, payload.Status)
	u.Put(packet)

	return asset.Errors(tx, u.Write())
}

// UndoAsset reverses the settlement and restores the status the packet had
// before it finished.
func (h *Finish) UndoAsset(tx database.Tx, store accounts.Store) errs.List {
	var payload FinishPayload
	if err := tx.DecodeAsset(&payload); err != nil {
		return errs.Of(errs.New(errs.KindStructural, tx.ID(), "asset", err.Error()))
	}

	u := asset.Begin(store)

	p, packet, list := getPacket(tx, u, tx.RecipientID, payload.Status)
	if list != nil {
		return list
	}

	if list := checkParties(tx, p, payload); list != nil {
		return list
	}

	packet.Asset = packet.Asset.WithString(FieldStatus, priorStatus(p))
	u.Put(packet)

	var err error
	switch payload.Status {
	case StatusSuccess:
		err = settle(
			func() error { return u.AdjustTrust(p.Carrier, -1) },
			func() error { return u.Debit(p.Carrier, p.Postage) },
			func() error { return u.Lock(p.Carrier, p.Security) },
		)

	case StatusFail:
		err = settle(
			func() error { return u.AdjustTrust(p.Carrier, 1) },
			func() error { return u.Debit(tx.SenderID, p.Security+p.Postage) },
			func() error { return u.Reinstate(p.Carrier, p.Security) },
		)
	}
	if err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.Reinstate(p.ID, p.Postage); err != nil {
		return asset.Errors(tx, err)
	}

	if err := u.RefundFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}

// =============================================================================

// checkParties verifies the sender is the packet recipient and the payload
// names the carrier holding the packet.
func checkParties(tx database.Tx, p Packet, payload FinishPayload) errs.List {
	if p.Recipient != tx.SenderID {
		return asset.Precondition(tx, "sender_id", tx.SenderID, string(p.Recipient), "only the recipient of packet %s can finish it", p.ID)
	}

	if p.Carrier != payload.CarrierID {
		return asset.Precondition(tx, "asset.carrierId", payload.CarrierID, string(p.Carrier), "packet %s is carried by another account", p.ID)
	}

	return nil
}

// settle runs the steps of a settlement and stops at the first error.
func settle(steps ...func() error) error {
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
