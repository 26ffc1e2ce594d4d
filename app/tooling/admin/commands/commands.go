// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// ReadBatch reads the json encoded batch of transactions from the file.
func ReadBatch(path string) ([]database.Tx, error) {
	if path == "" {
		return nil, errors.New("batch file path is required")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var txs []database.Tx
	if err := json.Unmarshal(content, &txs); err != nil {
		return nil, fmt.Errorf("decoding batch %s: %w", path, err)
	}

	return txs, nil
}

// WriteBatch writes the batch of transactions to the file.
func WriteBatch(path string, txs []database.Tx) error {
	content, err := json.MarshalIndent(txs, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(path, content, 0600)
}
