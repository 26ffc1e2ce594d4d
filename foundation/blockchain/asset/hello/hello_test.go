package hello_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset/hello"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	alice = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	pool  = database.AccountID("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")
)

func Test_Hello(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to store a greeting on an account.")
	{
		base := memory.FromBalances(map[database.AccountID]uint64{alice: 10})
		h := hello.New(asset.FeePolicy{Mode: asset.FeePool, Pool: pool})

		tx, err := database.NewTx(asset.TypeHello, 1, alice, "", 0, 2, hello.Payload{Hello: "world"})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
		}

		if list := h.ValidateAsset(tx); len(list) != 0 {
			t.Fatalf("\t%s\tShould validate the transaction: %v", failed, list)
		}
		t.Logf("\t%s\tShould validate the transaction.", success)

		overlay := accounts.NewOverlay(base)
		if err := h.Prepare(ctx, tx, overlay); err != nil {
			t.Fatalf("\t%s\tShould be able to prepare: %v", failed, err)
		}

		if list := h.ApplyAsset(tx, overlay); len(list) != 0 {
			t.Fatalf("\t%s\tShould be able to apply: %v", failed, list)
		}

		a, _ := overlay.Get(alice)
		p, _ := overlay.Get(pool)
		if a.Asset.String(hello.Field) != "world" || a.Balance != 8 || p.Balance != 2 {
			t.Fatalf("\t%s\tShould store the greeting and pay the fee to the pool: %+v %+v", failed, a, p)
		}
		t.Logf("\t%s\tShould store the greeting and pay the fee to the pool.", success)

		if list := h.ApplyAsset(tx, overlay); !errors.Is(list, errs.ErrPreconditionFailed) {
			t.Fatalf("\t%s\tShould refuse a second greeting: %v", failed, list)
		}
		t.Logf("\t%s\tShould refuse a second greeting.", success)

		if list := h.UndoAsset(tx, overlay); len(list) != 0 {
			t.Fatalf("\t%s\tShould be able to undo: %v", failed, list)
		}
		if changes := overlay.Changes(); len(changes) != 0 {
			t.Fatalf("\t%s\tShould restore every account on undo: %+v", failed, changes)
		}
		t.Logf("\t%s\tShould restore every account on undo.", success)
	}
}

func Test_ValidateHello(t *testing.T) {
	t.Log("Given the need to validate the greeting payload.")
	{
		h := hello.New(asset.Burn)

		tt := []struct {
			name    string
			payload any
			path    string
		}{
			{"empty", hello.Payload{}, "asset.hello"},
			{"tooLong", hello.Payload{Hello: strings.Repeat("x", 65)}, "asset.hello"},
			{"notJSONObject", 42, "asset"},
		}

		for testID, tst := range tt {
			tx, _ := database.NewTx(asset.TypeHello, 1, alice, "", 0, 0, tst.payload)

			list := h.ValidateAsset(tx)
			if len(list) != 1 || list[0].Path != tst.path || !errors.Is(list, errs.ErrStructural) {
				t.Fatalf("\t%s\tTest %d:\tShould report a structural error on %s for %s: %v", failed, testID, tst.path, tst.name, list)
			}
			t.Logf("\t%s\tTest %d:\tShould report a structural error on %s for %s.", success, testID, tst.path, tst.name)
		}
	}
}
