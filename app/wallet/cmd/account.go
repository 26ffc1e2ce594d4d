package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var listAll bool

// accountCmd represents the account command
var accountCmd = &cobra.Command{
	Use:     "account",
	Aliases: []string{"address"},
	Short:   "Show the ledger account behind a key file",
	Long:    "Show the name and ledger account id of the selected key file, or of every key file in the account path with --all.",
	RunE:    accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.Flags().BoolVar(&listAll, "all", false, "List every account in the account path.")
}

func accountRun(cmd *cobra.Command, args []string) error {
	if listAll {
		ns, err := nameservice.New(accountPath)
		if err != nil {
			return fmt.Errorf("loading accounts: %w", err)
		}
		return writeAccounts(cmd.OutOrStdout(), ns.Copy())
	}

	path := getPrivateKeyPath()

	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return fmt.Errorf("loading key %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), keyExtenstion)
	accounts := map[database.AccountID]string{
		database.PublicKeyToAccountID(privateKey.PublicKey): name,
	}

	return writeAccounts(cmd.OutOrStdout(), accounts)
}

// writeAccounts prints one line per account ordered by name.
func writeAccounts(w io.Writer, accounts map[database.AccountID]string) error {
	ids := make([]database.AccountID, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b database.AccountID) int {
		return strings.Compare(accounts[a], accounts[b])
	})

	for _, id := range ids {
		if _, err := fmt.Fprintf(w, "%-16s %s\n", accounts[id], id); err != nil {
			return err
		}
	}

	return nil
}
