// Package transport implements the packet delivery transaction types. A
// packet is an account of its own whose asset tracks the delivery:
//
//	register: pending
//	start:    pending -> ongoing
//	alarm:    ongoing|alarm -> alarm
//	finish:   ongoing|alarm -> success|fail
//
// The owner's postage is locked on the packet until the delivery finishes.
// The carrier locks a security on its own account while it holds the packet.
package transport

import (
	"slices"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Set of packet states.
const (
	StatusPending = "pending"
	StatusOngoing = "ongoing"
	StatusAlarm   = "alarm"
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Set of asset fields kept on a packet account.
const (
	FieldStatus    = "status"
	FieldOwner     = "owner"
	FieldRecipient = "recipient"
	FieldCarrier   = "carrier"
	FieldPostage   = "postage"
	FieldSecurity  = "security"
	FieldMinTrust  = "minTrust"
	FieldAlarms    = "alarms"
)

// Packet is the delivery state read from a packet account.
type Packet struct {
	ID        database.AccountID
	Status    string
	Owner     database.AccountID
	Recipient database.AccountID
	Carrier   database.AccountID
	Postage   uint64
	Security  uint64
	MinTrust  int64
	Alarms    uint64
}

// ReadPacket decodes the delivery state kept on the account.
func ReadPacket(account database.Account) (Packet, error) {
	as := account.Asset

	postage, err := as.Uint64(FieldPostage)
	if err != nil {
		return Packet{}, err
	}

	security, err := as.Uint64(FieldSecurity)
	if err != nil {
		return Packet{}, err
	}

	minTrust, err := as.Int64(FieldMinTrust)
	if err != nil {
		return Packet{}, err
	}

	alarms, err := as.Uint64(FieldAlarms)
	if err != nil {
		return Packet{}, err
	}

	p := Packet{
		ID:        account.AccountID,
		Status:    as.String(FieldStatus),
		Owner:     database.AccountID(as.String(FieldOwner)),
		Recipient: database.AccountID(as.String(FieldRecipient)),
		Carrier:   database.AccountID(as.String(FieldCarrier)),
		Postage:   postage,
		Security:  security,
		MinTrust:  minTrust,
		Alarms:    alarms,
	}

	return p, nil
}

// =============================================================================

// getPacket reads the packet from the update and checks its status is one
// of the allowed source states.
func getPacket(tx database.Tx, u *asset.Update, packetID database.AccountID, allowed ...string) (Packet, database.Account, errs.List) {
	account, err := u.Get(packetID)
	if err != nil {
		return Packet{}, database.Account{}, asset.Errors(tx, err)
	}

	p, err := ReadPacket(account)
	if err != nil {
		return Packet{}, database.Account{}, errs.Of(errs.New(errs.KindPreconditionFailed, tx.ID(), "asset", err.Error()))
	}

	if !slices.Contains(allowed, p.Status) {
		return Packet{}, database.Account{}, asset.Precondition(tx, "asset."+FieldStatus, p.Status, oneOf(allowed), "packet %s is not in an allowed state", packetID)
	}

	return p, account, nil
}

func oneOf(statuses []string) string {
	if len(statuses) == 1 {
		if statuses[0] == "" {
			return "no status"
		}
		return statuses[0]
	}

	return "one of " + strings.Join(statuses, " ")
}

// requirePacket reports a missing packet id on the recipient field.
func requirePacket(tx database.Tx) errs.List {
	if tx.RecipientID == "" {
		return errs.Of(errs.New(errs.KindStructural, tx.ID(), "recipient_id", "recipient_id must name the packet account").WithValues(tx.RecipientID, "packet account id"))
	}
	return nil
}

// priorStatus returns the status a finished packet had before it finished.
func priorStatus(p Packet) string {
	if p.Alarms > 0 {
		return StatusAlarm
	}
	return StatusOngoing
}
