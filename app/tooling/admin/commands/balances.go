package commands

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/ledger/foundation/nameservice"
)

// Balances prints the current set of balances.
func Balances(ctx context.Context, db *disk.Disk, ns *nameservice.NameService, onlyAct string) error {
	accounts, err := db.Accounts(ctx)
	if err != nil {
		return err
	}

	for _, account := range accounts {
		name := ns.Lookup(account.AccountID)
		if onlyAct != "" && onlyAct != name && onlyAct != string(account.AccountID) {
			continue
		}

		fmt.Printf("Account: %s  Name: %s  Balance: %d", account.AccountID, name, account.Balance)
		if len(account.Asset) > 0 {
			fmt.Printf("  Asset: %v", map[string]string(account.Asset))
		}
		fmt.Print("\n")
	}

	return nil
}
