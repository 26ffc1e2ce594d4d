package database

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// TxType is the small integer tag selecting the asset handler that
// processes a transaction.
type TxType uint16

// =============================================================================

// Tx is the transactional information between two parties. A transaction is
// never modified once constructed; its validity is a function of these fields
// and the account state it is applied against.
type Tx struct {
	Type        TxType          `json:"type"`                                                // Selects the asset handler.
	Nonce       uint64          `json:"nonce"`                                               // Unique value supplied by the sender.
	SenderID    AccountID       `json:"sender_id" validate:"required,account"`               // Account paying the amount and fee.
	RecipientID AccountID       `json:"recipient_id,omitempty" validate:"omitempty,account"` // Account receiving the benefit, when the type has one.
	Amount      uint64          `json:"amount"`                                              // Value moved by the transaction.
	Fee         uint64          `json:"fee"`                                                 // Fee paid by the sender.
	Asset       json.RawMessage `json:"asset,omitempty"`                                     // Type specific payload.
	Signatures  []string        `json:"signatures,omitempty"`                                // Signatures over the content, not verified by the core.
}

// NewTx constructs a new transaction.
func NewTx(typ TxType, nonce uint64, senderID AccountID, recipientID AccountID, amount uint64, fee uint64, asset any) (Tx, error) {
	if !senderID.IsAccountID() {
		return Tx{}, fmt.Errorf("sender account is not properly formatted")
	}

	var raw json.RawMessage
	if asset != nil {
		data, err := json.Marshal(asset)
		if err != nil {
			return Tx{}, fmt.Errorf("marshal asset: %w", err)
		}
		raw = data
	}

	tx := Tx{
		Type:        typ,
		Nonce:       nonce,
		SenderID:    senderID,
		RecipientID: recipientID,
		Amount:      amount,
		Fee:         fee,
		Asset:       raw,
	}

	return tx, nil
}

// content is the part of a transaction covered by its id and signatures.
type content struct {
	Type        TxType          `json:"type"`
	Nonce       uint64          `json:"nonce"`
	SenderID    AccountID       `json:"sender_id"`
	RecipientID AccountID       `json:"recipient_id"`
	Amount      uint64          `json:"amount"`
	Fee         uint64          `json:"fee"`
	Asset       json.RawMessage `json:"asset"`
}

func (tx Tx) content() content {
	return content{
		Type:        tx.Type,
		Nonce:       tx.Nonce,
		SenderID:    tx.SenderID,
		RecipientID: tx.RecipientID,
		Amount:      tx.Amount,
		Fee:         tx.Fee,
		Asset:       tx.Asset,
	}
}

// ID returns the content derived id of the transaction. Signatures are not
// part of the id.
func (tx Tx) ID() string {
	return signature.Hash(tx.content())
}

// DecodeAsset unmarshals the type specific payload into the value.
func (tx Tx) DecodeAsset(v any) error {
	if len(tx.Asset) == 0 {
		return fmt.Errorf("asset payload missing")
	}

	if err := json.Unmarshal(tx.Asset, v); err != nil {
		return fmt.Errorf("asset payload: %w", err)
	}

	return nil
}

// Sign uses the specified private key to sign the transaction content and
// returns a copy of the transaction carrying the signature.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (Tx, error) {
	sig, err := signature.Sign(tx.content(), privateKey)
	if err != nil {
		return Tx{}, err
	}

	sigs := make([]string, len(tx.Signatures), len(tx.Signatures)+1)
	copy(sigs, tx.Signatures)
	tx.Signatures = append(sigs, sig)

	return tx, nil
}

// Signers extracts the accounts that produced the signatures carried by the
// transaction.
func (tx Tx) Signers() ([]AccountID, error) {
	signers := make([]AccountID, len(tx.Signatures))
	for i, sig := range tx.Signatures {
		address, err := signature.FromAddress(tx.content(), sig)
		if err != nil {
			return nil, fmt.Errorf("signature %d: %w", i, err)
		}
		signers[i] = AccountID(address)
	}

	return signers, nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%d:%s:%d", tx.Type, tx.SenderID, tx.Nonce)
}
