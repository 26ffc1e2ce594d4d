package asset

import (
	"context"
	"encoding/json"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
	"github.com/ardanlabs/ledger/foundation/validate"
)

// Check runs the structural checks shared by every transaction type. When
// payload is not nil the asset payload is decoded into it and checked as
// well, so a handler can read the payload once the list comes back empty.
func Check(tx database.Tx, typ database.TxType, payload any) errs.List {
	var list errs.List

	if tx.Type != typ {
		list = append(list, errs.Newf(errs.KindStructural, "", "type", "handler for type %d got type %d", typ, tx.Type).WithValues(tx.Type, "matching type"))
	}

	list = append(list, validate.Check(tx)...)

	// A payload that is not JSON can't be hashed, so every such transaction
	// would share the zero id.
	if len(tx.Asset) > 0 && !json.Valid(tx.Asset) {
		return append(list, errs.New(errs.KindStructural, "", "asset", "asset payload is not valid JSON").WithValues(string(tx.Asset), "json")).WithTxID(tx.ID())
	}

	if payload != nil {
		if err := tx.DecodeAsset(payload); err != nil {
			list = append(list, errs.New(errs.KindStructural, "", "asset", err.Error()))
		} else {
			list = append(list, validate.CheckAt("asset", payload)...)
		}
	}

	return list.WithTxID(tx.ID())
}

// Errors converts the error returned while staging a transaction into the
// list reported for it.
func Errors(tx database.Tx, err error) errs.List {
	if err == nil {
		return nil
	}
	return errs.From(err).WithTxID(tx.ID())
}

// Precondition constructs the error reported when the account state does not
// allow the transaction.
func Precondition(tx database.Tx, path string, actual any, expected string, format string, args ...any) errs.List {
	return errs.Of(errs.Newf(errs.KindPreconditionFailed, tx.ID(), path, format, args...).WithValues(actual, expected))
}

// Cache declares the accounts a handler depends on. Selectors for account
// ids that are not well formed are skipped; ValidateAsset reports them.
func Cache(ctx context.Context, store accounts.Cacher, selectors ...accounts.Selector) error {
	valid := make([]accounts.Selector, 0, len(selectors))
	for _, sel := range selectors {
		if sel.AccountID.IsAccountID() {
			valid = append(valid, sel)
		}
	}

	return store.Cache(ctx, valid...)
}
