// Package signature provides helper functions for hashing transaction content
// and producing the signatures a wallet attaches to a transaction. The
// processing core never verifies signatures; it only carries them.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ledgerID is added to the recovery id of every signature so signatures
// produced for this ledger are not mistaken for Ethereum ones.
const ledgerID = 31

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the value and returns the
// hex-encoded [R|S|V] signature.
func Sign(value any, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return "", err
	}

	// Check the signature can be recovered back to the signing key.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, sig[:crypto.RecoveryIDOffset]) {
		return "", errors.New("invalid signature")
	}

	sig[crypto.RecoveryIDOffset] += ledgerID

	return hexutil.Encode(sig), nil
}

// FromAddress extracts the address for the account that signed the value.
// The same exact value that was signed must be provided, otherwise a
// different address is returned.
func FromAddress(value any, sigStr string) (string, error) {
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return "", fmt.Errorf("decode signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("invalid signature length %d", len(sig))
	}

	recID := sig[crypto.RecoveryIDOffset] - ledgerID
	if recID != 0 && recID != 1 {
		return "", errors.New("invalid recovery id")
	}
	sig[crypto.RecoveryIDOffset] = recID

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	txHash := crypto.Keccak256(v)

	stamp := []byte("\x19Ledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash), nil
}
