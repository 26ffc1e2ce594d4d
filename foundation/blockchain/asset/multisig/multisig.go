// Package multisig implements the transaction that registers a
// multisignature group on the sender account.
package multisig

import (
	"context"
	"strconv"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Set of asset fields written by a registration.
const (
	FieldKeysGroup = "multisig.keysgroup"
	FieldMin       = "multisig.min"
	FieldLifetime  = "multisig.lifetime"
)

// Payload is the asset payload of a multisignature registration.
type Payload struct {
	KeysGroup []database.AccountID `json:"keysgroup" validate:"required,min=1,max=15,unique,dive,account"`
	Min       uint64               `json:"min" validate:"gte=1,lte=15"`
	Lifetime  uint64               `json:"lifetime" validate:"gte=1,lte=72"`
}

// Handler processes multisignature registrations.
type Handler struct {
	fees asset.FeePolicy
}

// New constructs a multisignature registration handler.
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

// ValidateAsset checks the group definition.
func (h *Handler) ValidateAsset(tx database.Tx) errs.List {
	var payload Payload
	list := asset.Check(tx, asset.TypeMultisig, &payload)
	if len(list) > 0 {
		return list
	}

	if payload.Min > uint64(len(payload.KeysGroup)) {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "asset.min", "min cannot exceed the size of the keys group").WithValues(payload.Min, "lte=len(keysgroup)"))
	}

	for i, member := range payload.KeysGroup {
		if member == tx.SenderID {
			list = append(list, errs.New(errs.KindStructural, tx.ID(), "asset.keysgroup["+strconv.Itoa(i)+"]", "the sender cannot be a member of its own group").WithValues(member, "other account"))
		}
	}

	if tx.Amount != 0 {
		list = append(list, errs.New(errs.KindStructural, tx.ID(), "amount", "amount must be zero").WithValues(tx.Amount, "eq=0"))
	}

	return list
}

// ApplyAsset registers the group on the sender.
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

	if sender.Asset.Has(FieldMin) {
		return asset.Precondition(tx, "asset."+FieldMin, sender.Asset.String(FieldMin), "unregistered account", "account %s already has a multisignature group", tx.SenderID)
	}

	if err := u.ChargeFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	members := make([]string, len(payload.KeysGroup))
	for i, member := range payload.KeysGroup {
		members[i] = string(member)
	}

	sender, _ = u.Get(tx.SenderID)
	sender.Asset = sender.Asset.
		WithString(FieldKeysGroup, strings.Join(members, ",")).
		WithUint64(FieldMin, payload.Min).
		WithUint64(FieldLifetime, payload.Lifetime)
	u.Put(sender)

	return asset.Errors(tx, u.Write())
}

// UndoAsset removes the group and refunds the fee.
func (h *Handler) UndoAsset(tx database.Tx, store accounts.Store) errs.List {
	u := asset.Begin(store)

	sender, err := u.Get(tx.SenderID)
	if err != nil {
		return asset.Errors(tx, err)
	}

	if !sender.Asset.Has(FieldMin) {
		return asset.Precondition(tx, "asset."+FieldMin, nil, "registered account", "account %s has no multisignature group", tx.SenderID)
	}

	sender.Asset = sender.Asset.Without(FieldKeysGroup, FieldMin, FieldLifetime)
	u.Put(sender)

	if err := u.RefundFee(h.fees, tx); err != nil {
		return asset.Errors(tx, err)
	}

	return asset.Errors(tx, u.Write())
}

// Members returns the keys group registered on the account.
func Members(account database.Account) []database.AccountID {
	raw := account.Asset.String(FieldKeysGroup)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	members := make([]database.AccountID, len(parts))
	for i, part := range parts {
		members[i] = database.AccountID(part)
	}

	return members
}
