package commands

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
	"go.uber.org/zap"
)

// Seed resets the ledger and writes the genesis balances.
func Seed(ctx context.Context, log *zap.SugaredLogger, db *disk.Disk, gen genesis.Genesis) error {
	if err := db.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	accounts := make([]database.Account, 0, len(gen.Balances))
	for accountID, balance := range gen.Balances {
		accounts = append(accounts, database.NewAccount(accountID, balance))
	}

	if err := db.Apply(ctx, accounts); err != nil {
		return err
	}

	log.Infow("seed", "status", "complete", "chainID", gen.ChainID, "genesisDate", gen.Date, "accounts", len(accounts))

	return nil
}
