package transfer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset/transfer"
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
	bob   = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	pool  = database.AccountID("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")
)

func newTx(t *testing.T, typ database.TxType, from database.AccountID, to database.AccountID, amount uint64, fee uint64) database.Tx {
	tx, err := database.NewTx(typ, 1, from, to, amount, fee, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
	}
	return tx
}

func prepare(t *testing.T, base accounts.Base, h asset.Handler, tx database.Tx) *accounts.Overlay {
	overlay := accounts.NewOverlay(base)
	if err := h.Prepare(context.Background(), tx, overlay); err != nil {
		t.Fatalf("\t%s\tShould be able to prepare the transaction: %v", failed, err)
	}
	return overlay
}

func balance(t *testing.T, overlay *accounts.Overlay, accountID database.AccountID) uint64 {
	account, exists := overlay.Lookup(accountID)
	if !exists {
		t.Fatalf("\t%s\tShould have cached account %s.", failed, accountID)
	}
	return account.Balance
}

// =============================================================================

func Test_TransferWithBonus(t *testing.T) {
	t.Log("Given the need to pay a cashback bonus on a transfer.")
	{
		base := memory.FromBalances(map[database.AccountID]uint64{alice: 100, bob: 0})
		h := transfer.NewWithBonus(asset.Burn, transfer.DefaultBonusPercent)
		tx := newTx(t, asset.TypeTransferBonus, alice, bob, 40, 1)

		if list := h.ValidateAsset(tx); len(list) != 0 {
			t.Fatalf("\t%s\tShould validate the transaction: %v", failed, list)
		}
		t.Logf("\t%s\tShould validate the transaction.", success)

		overlay := prepare(t, base, h, tx)

		if list := h.ApplyAsset(tx, overlay); len(list) != 0 {
			t.Fatalf("\t%s\tShould be able to apply the transaction: %v", failed, list)
		}

		if b := balance(t, overlay, alice); b != 59 {
			t.Fatalf("\t%s\tShould debit the amount and fee from the sender: got %d, exp 59", failed, b)
		}
		t.Logf("\t%s\tShould debit the amount and fee from the sender.", success)

		if b := balance(t, overlay, bob); b != 60 {
			t.Fatalf("\t%s\tShould credit the amount and bonus to the recipient: got %d, exp 60", failed, b)
		}
		t.Logf("\t%s\tShould credit the amount and bonus to the recipient.", success)

		if list := h.UndoAsset(tx, overlay); len(list) != 0 {
			t.Fatalf("\t%s\tShould be able to undo the transaction: %v", failed, list)
		}

		if balance(t, overlay, alice) != 100 || balance(t, overlay, bob) != 0 {
			t.Fatalf("\t%s\tShould restore both balances on undo.", failed)
		}
		if len(overlay.Changes()) != 0 {
			t.Fatalf("\t%s\tShould leave no change behind: %+v", failed, overlay.Changes())
		}
		t.Logf("\t%s\tShould restore both balances on undo.", success)
	}
}

func Test_Conservation(t *testing.T) {
	t.Log("Given the need to conserve funds on a transfer.")
	{
		tt := []struct {
			name   string
			policy asset.FeePolicy
			lost   uint64
		}{
			{"burn", asset.Burn, 3},
			{"pool", asset.FeePolicy{Mode: asset.FeePool, Pool: pool}, 0},
		}

		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen fees are handled with the %s policy.", testID, tst.name)
			{
				base := memory.FromBalances(map[database.AccountID]uint64{alice: 100, bob: 7})
				h := transfer.New(tst.policy)
				tx := newTx(t, asset.TypeTransfer, alice, bob, 25, 3)

				overlay := prepare(t, base, h, tx)
				before := total(overlay, alice, bob, pool)

				if list := h.ApplyAsset(tx, overlay); len(list) != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould be able to apply the transaction: %v", failed, testID, list)
				}

				after := total(overlay, alice, bob, pool)
				if before-after != tst.lost {
					t.Fatalf("\t%s\tTest %d:\tShould only lose the burned fee: got %d, exp %d", failed, testID, before-after, tst.lost)
				}
				t.Logf("\t%s\tTest %d:\tShould only lose the burned fee.", success, testID)

				h.UndoAsset(tx, overlay)
				if total(overlay, alice, bob, pool) != before || len(overlay.Changes()) != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould restore every account on undo: %+v", failed, testID, overlay.Changes())
				}
				t.Logf("\t%s\tTest %d:\tShould restore every account on undo.", success, testID)
			}
		}
	}
}

func Test_InsufficientFunds(t *testing.T) {
	t.Log("Given the need to reject a transfer the sender cannot pay.")
	{
		base := memory.FromBalances(map[database.AccountID]uint64{alice: 100})
		h := transfer.New(asset.Burn)
		tx := newTx(t, asset.TypeTransfer, alice, bob, 100, 1)

		overlay := prepare(t, base, h, tx)

		list := h.ApplyAsset(tx, overlay)
		if !errors.Is(list, errs.ErrInsufficientFunds) {
			t.Fatalf("\t%s\tShould fail with insufficient funds: %v", failed, list)
		}
		if list[0].TxID != tx.ID() {
			t.Fatalf("\t%s\tShould report the transaction id: %v", failed, list[0])
		}
		t.Logf("\t%s\tShould fail with insufficient funds.", success)

		if len(overlay.Changes()) != 0 {
			t.Fatalf("\t%s\tShould not stage any change: %+v", failed, overlay.Changes())
		}
		t.Logf("\t%s\tShould not stage any change.", success)
	}
}

func Test_SelfTransfer(t *testing.T) {
	t.Log("Given the need to handle a transfer to the sender itself.")
	{
		base := memory.FromBalances(map[database.AccountID]uint64{alice: 100})
		h := transfer.New(asset.Burn)
		tx := newTx(t, asset.TypeTransfer, alice, alice, 10, 1)

		overlay := prepare(t, base, h, tx)

		if list := h.ApplyAsset(tx, overlay); len(list) != 0 {
			t.Fatalf("\t%s\tShould be able to apply the transaction: %v", failed, list)
		}

		if b := balance(t, overlay, alice); b != 99 {
			t.Fatalf("\t%s\tShould only charge the fee: got %d, exp 99", failed, b)
		}
		t.Logf("\t%s\tShould only charge the fee.", success)
	}
}

func Test_ValidateTransfer(t *testing.T) {
	t.Log("Given the need to validate transfer fields without account state.")
	{
		h := transfer.New(asset.Burn)

		tt := []struct {
			name string
			tx   database.Tx
			path string
		}{
			{"noRecipient", database.Tx{Type: asset.TypeTransfer, SenderID: alice, Amount: 1}, "recipient_id"},
			{"badRecipient", database.Tx{Type: asset.TypeTransfer, SenderID: alice, RecipientID: "bill", Amount: 1}, "recipient_id"},
			{"noAmount", database.Tx{Type: asset.TypeTransfer, SenderID: alice, RecipientID: bob}, "amount"},
			{"wrongType", database.Tx{Type: asset.TypeHello, SenderID: alice, RecipientID: bob, Amount: 1}, "type"},
			{"noSender", database.Tx{Type: asset.TypeTransfer, RecipientID: bob, Amount: 1}, "sender_id"},
			{"badAsset", database.Tx{Type: asset.TypeTransfer, SenderID: alice, RecipientID: bob, Amount: 1, Asset: json.RawMessage(`{"hello":`)}, "asset"},
		}

		for testID, tst := range tt {
			list := h.ValidateAsset(tst.tx)
			if len(list) != 1 || list[0].Kind != errs.KindStructural || list[0].Path != tst.path {
				t.Fatalf("\t%s\tTest %d:\tShould report one structural error on %s for %s: %v", failed, testID, tst.path, tst.name, list)
			}
			t.Logf("\t%s\tTest %d:\tShould report one structural error on %s for %s.", success, testID, tst.path, tst.name)
		}
	}
}

// =============================================================================

func total(overlay *accounts.Overlay, ids ...database.AccountID) uint64 {
	var sum uint64
	for _, id := range ids {
		if account, exists := overlay.Lookup(id); exists {
			sum += account.Balance
		}
	}
	return sum
}
