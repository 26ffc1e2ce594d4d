package transport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset/transport"
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
	owner     = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	carrier   = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	recipient = database.AccountID("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")
	packet    = database.AccountID("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9")
)

var (
	register = transport.NewRegister(asset.Burn)
	start    = transport.NewStart(asset.Burn)
	finish   = transport.NewFinish(asset.Burn)
	alarm    = transport.NewAlarm(asset.Burn)
)

type step struct {
	h  asset.Handler
	tx database.Tx
}

func newTx(t *testing.T, typ database.TxType, from database.AccountID, to database.AccountID, payload any) database.Tx {
	tx, err := database.NewTx(typ, 1, from, to, 0, 0, payload)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the transaction: %v", failed, err)
	}
	return tx
}

func lifecycle(t *testing.T, status string) []step {
	return []step{
		{register, newTx(t, asset.TypeRegisterPacket, owner, packet, transport.RegisterPayload{Recipient: recipient, Postage: 5, Security: 15, MinTrust: 0})},
		{start, newTx(t, asset.TypeStartTransport, carrier, packet, nil)},
		{alarm, newTx(t, asset.TypeLightAlarm, packet, "", nil)},
		{finish, newTx(t, asset.TypeFinishTransport, recipient, packet, transport.FinishPayload{Status: status, CarrierID: carrier})},
	}
}

// apply prepares and applies every step in order against the overlay.
func apply(t *testing.T, overlay *accounts.Overlay, steps []step) {
	for i, s := range steps {
		if list := s.h.ValidateAsset(s.tx); len(list) != 0 {
			t.Fatalf("\t%s\tShould validate step %d: %v", failed, i, list)
		}
		if err := s.h.Prepare(context.Background(), s.tx, overlay); err != nil {
			t.Fatalf("\t%s\tShould prepare step %d: %v", failed, i, err)
		}
		if list := s.h.ApplyAsset(s.tx, overlay); len(list) != 0 {
			t.Fatalf("\t%s\tShould apply step %d: %v", failed, i, list)
		}
	}
}

// undo undoes every step in reverse order.
func undo(t *testing.T, overlay *accounts.Overlay, steps []step) {
	for i := len(steps) - 1; i >= 0; i-- {
		if list := steps[i].h.UndoAsset(steps[i].tx, overlay); len(list) != 0 {
			t.Fatalf("\t%s\tShould undo step %d: %v", failed, i, list)
		}
	}
}

func get(t *testing.T, overlay *accounts.Overlay, accountID database.AccountID) database.Account {
	account, exists := overlay.Lookup(accountID)
	if !exists {
		t.Fatalf("\t%s\tShould have cached account %s.", failed, accountID)
	}
	return account
}

func newBase() *memory.Memory {
	return memory.FromBalances(map[database.AccountID]uint64{
		owner:     100,
		carrier:   20,
		recipient: 0,
	})
}

// =============================================================================

func Test_Delivered(t *testing.T) {
	t.Log("Given the need to deliver a packet successfully.")
	{
		overlay := accounts.NewOverlay(newBase())
		steps := lifecycle(t, transport.StatusSuccess)

		apply(t, overlay, steps[:2])

		c := get(t, overlay, carrier)
		if c.Balance != 5 || c.Asset.String(asset.FieldLockedAmount) != "15" {
			t.Fatalf("\t%s\tShould lock the security on the carrier: %+v", failed, c)
		}
		t.Logf("\t%s\tShould lock the security on the carrier.", success)

		p, _ := transport.ReadPacket(get(t, overlay, packet))
		if p.Status != transport.StatusOngoing || p.Carrier != carrier || p.Owner != owner {
			t.Fatalf("\t%s\tShould mark the packet ongoing: %+v", failed, p)
		}
		t.Logf("\t%s\tShould mark the packet ongoing.", success)

		apply(t, overlay, steps[2:])

		c = get(t, overlay, carrier)
		if c.Balance != 25 || c.Asset.Has(asset.FieldLockedAmount) || c.Asset.String(asset.FieldTrust) != "1" {
			t.Fatalf("\t%s\tShould release the security, pay the postage and raise trust: %+v", failed, c)
		}
		t.Logf("\t%s\tShould release the security, pay the postage and raise trust.", success)

		pa := get(t, overlay, packet)
		if pa.Asset.String(transport.FieldStatus) != transport.StatusSuccess || pa.Asset.Has(asset.FieldLockedAmount) {
			t.Fatalf("\t%s\tShould finish the packet: %+v", failed, pa)
		}
		t.Logf("\t%s\tShould finish the packet.", success)

		if o := get(t, overlay, owner); o.Balance != 95 {
			t.Fatalf("\t%s\tShould have charged the owner the postage: %d", failed, o.Balance)
		}
		t.Logf("\t%s\tShould have charged the owner the postage.", success)

		undo(t, overlay, steps)

		if changes := overlay.Changes(); len(changes) != 0 {
			t.Fatalf("\t%s\tShould restore every account on undo: %+v", failed, changes)
		}
		t.Logf("\t%s\tShould restore every account on undo.", success)
	}
}

func Test_Failed(t *testing.T) {
	t.Log("Given the need to report a failed delivery.")
	{
		overlay := accounts.NewOverlay(newBase())
		steps := lifecycle(t, transport.StatusFail)

		apply(t, overlay, steps)

		c := get(t, overlay, carrier)
		if c.Balance != 5 || c.Asset.Has(asset.FieldLockedAmount) || c.Asset.String(asset.FieldTrust) != "-1" {
			t.Fatalf("\t%s\tShould take the security and lower trust: %+v", failed, c)
		}
		t.Logf("\t%s\tShould take the security and lower trust.", success)

		if r := get(t, overlay, recipient); r.Balance != 20 {
			t.Fatalf("\t%s\tShould pay the security and postage to the recipient: %d", failed, r.Balance)
		}
		t.Logf("\t%s\tShould pay the security and postage to the recipient.", success)

		undo(t, overlay, steps[2:])

		p, _ := transport.ReadPacket(get(t, overlay, packet))
		if p.Status != transport.StatusOngoing || p.Alarms != 0 {
			t.Fatalf("\t%s\tShould return the packet to ongoing: %+v", failed, p)
		}
		t.Logf("\t%s\tShould return the packet to ongoing.", success)

		undo(t, overlay, steps[:2])

		if changes := overlay.Changes(); len(changes) != 0 {
			t.Fatalf("\t%s\tShould restore every account on undo: %+v", failed, changes)
		}
		t.Logf("\t%s\tShould restore every account on undo.", success)
	}
}

func Test_StartPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to only start a pending packet with a trusted carrier.")
	{
		pending := database.Account{
			AccountID: packet,
			Asset:     database.Asset{"status": "pending", "security": "15", "postage": "5", "owner": string(owner), "recipient": string(recipient)},
		}

		tt := []struct {
			name    string
			carrier database.Account
			packet  database.Account
			err     error
		}{
			{"lowFunds", database.NewAccount(carrier, 10), pending, errs.ErrInsufficientFunds},
			{"ongoing", database.NewAccount(carrier, 20), database.Account{AccountID: packet, Asset: pending.Asset.WithString("status", "ongoing")}, errs.ErrPreconditionFailed},
			{"success", database.NewAccount(carrier, 20), database.Account{AccountID: packet, Asset: pending.Asset.WithString("status", "success")}, errs.ErrPreconditionFailed},
			{"untrusted", database.NewAccount(carrier, 20), database.Account{AccountID: packet, Asset: pending.Asset.WithInt64("minTrust", 1)}, errs.ErrPreconditionFailed},
			{"unregistered", database.NewAccount(carrier, 20), database.NewAccount(packet, 0), errs.ErrPreconditionFailed},
		}

		for testID, tst := range tt {
			overlay := accounts.NewOverlay(memory.New(tst.carrier, tst.packet))
			tx := newTx(t, asset.TypeStartTransport, carrier, packet, nil)

			if err := start.Prepare(ctx, tx, overlay); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to prepare: %v", failed, testID, err)
			}

			list := start.ApplyAsset(tx, overlay)
			if len(list) != 1 || !errors.Is(list, tst.err) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the %s start: %v", failed, testID, tst.name, list)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the %s start.", success, testID, tst.name)

			if len(overlay.Changes()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould leave every account unchanged: %+v", failed, testID, overlay.Changes())
			}
			t.Logf("\t%s\tTest %d:\tShould leave every account unchanged.", success, testID)
		}
	}
}

func Test_FinishPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Log("Given the need to only let the recipient finish an ongoing packet.")
	{
		ongoing := database.Account{
			AccountID: packet,
			Asset:     database.Asset{"status": "ongoing", "security": "15", "postage": "5", "lockedAmount": "5", "owner": string(owner), "recipient": string(recipient), "carrier": string(carrier)},
		}
		c := database.Account{AccountID: carrier, Balance: 5, Asset: database.Asset{"lockedAmount": "15"}}

		tt := []struct {
			name   string
			sender database.AccountID
			carry  database.AccountID
		}{
			{"notRecipient", owner, carrier},
			{"wrongCarrier", recipient, owner},
		}

		for testID, tst := range tt {
			base := memory.New(ongoing, c, database.NewAccount(owner, 1), database.NewAccount(recipient, 1))
			overlay := accounts.NewOverlay(base)
			tx := newTx(t, asset.TypeFinishTransport, tst.sender, packet, transport.FinishPayload{Status: transport.StatusSuccess, CarrierID: tst.carry})

			if err := finish.Prepare(ctx, tx, overlay); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to prepare: %v", failed, testID, err)
			}

			list := finish.ApplyAsset(tx, overlay)
			if !errors.Is(list, errs.ErrPreconditionFailed) || len(overlay.Changes()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould reject the %s finish: %v", failed, testID, tst.name, list)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the %s finish.", success, testID, tst.name)
		}
	}
}

func Test_Alarms(t *testing.T) {
	t.Log("Given the need to count alarms raised by a packet.")
	{
		overlay := accounts.NewOverlay(newBase())
		steps := lifecycle(t, transport.StatusSuccess)

		apply(t, overlay, steps[:1])

		list := alarm.ApplyAsset(steps[2].tx, overlay)
		if !errors.Is(list, errs.ErrPreconditionFailed) {
			t.Fatalf("\t%s\tShould reject an alarm on a pending packet: %v", failed, list)
		}
		t.Logf("\t%s\tShould reject an alarm on a pending packet.", success)

		apply(t, overlay, steps[1:3])
		apply(t, overlay, steps[2:3])

		p, _ := transport.ReadPacket(get(t, overlay, packet))
		if p.Status != transport.StatusAlarm || p.Alarms != 2 {
			t.Fatalf("\t%s\tShould count every alarm: %+v", failed, p)
		}
		t.Logf("\t%s\tShould count every alarm.", success)

		undo(t, overlay, steps[2:3])
		p, _ = transport.ReadPacket(get(t, overlay, packet))
		if p.Status != transport.StatusAlarm || p.Alarms != 1 {
			t.Fatalf("\t%s\tShould stay in alarm while alarms remain: %+v", failed, p)
		}
		t.Logf("\t%s\tShould stay in alarm while alarms remain.", success)

		undo(t, overlay, steps[2:3])
		p, _ = transport.ReadPacket(get(t, overlay, packet))
		if p.Status != transport.StatusOngoing || p.Alarms != 0 {
			t.Fatalf("\t%s\tShould return to ongoing once no alarm remains: %+v", failed, p)
		}
		t.Logf("\t%s\tShould return to ongoing once no alarm remains.", success)
	}
}
