package transport

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Alarm processes the transaction a packet sends when its sensors detect a
// problem during the delivery. The sender is the packet itself.
type Alarm struct {
	fees asset.FeePolicy
}

// NewAlarm constructs a light alarm handler.
func NewAlarm(fees asset.FeePolicy) *Alarm {
	return &Alarm{
		fees: fees,
	}
}

// Prepare caches the packet.
func (h *Alarm) Prepare(ctx context.Context, tx database.Tx, store accounts.Cacher) error {
	selectors := []accounts.Selector{
		accounts.OrNew(tx.SenderID),
	}

	return asset.Cache(ctx, store, append(selectors, h.fees.Selectors()...)...)
}

// ValidateAsset checks the alarm carries no value.
func (h *Alarm) ValidateAsset(tx database.Tx) errs.List {
	list := asset.Check(tx, asset.TypeLightAlarm, nil)

	if tx.Amount != 0 {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount must be zero").WithValues(tx.Amount, "eq=0"))
	}

	return list
}

// ApplyAsset marks the packet in alarm and counts the alarm.
func (h *Alarm) ApplyAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	p, _, list := getPacket(tx, u, tx.SenderID, StatusOngoing, StatusAlarm)
	if list != nil {
		return list
	}

	if err := u.ChargeFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	packet, err := u.Get(p.ID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	packet.Asset = packet.Asset.
		WithString(FieldStatus, StatusAlarm).
		WithUint64(FieldAlarms, p.Alarms+1)
	u.Put(packet)

	return asset.Errors(tx, u.Write())
}

// UndoAsset removes the alarm. The packet goes back to ongoing once no
// alarm is left.
func (h *Alarm) UndoAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	p, packet, list := getPacket(tx, u, tx.SenderID, StatusAlarm)
	if list != nil {
		return list
	}

	if p.Alarms == 0 {
		return asset.Precondition(tx, "asset."+FieldAlarms, p.Alarms, ">= 1", "packet %s has no alarm to remove", p.ID)
	}

	p.Alarms--
	packet.Asset = packet.Asset.
		WithString(FieldStatus, priorStatus(p)).
		WithUint64(FieldAlarms, p.Alarms)
	u.Put(packet)

	if err := u.RefundFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}
