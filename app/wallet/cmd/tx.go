package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	txType    uint16
	to        string
	nonce     uint64
	amount    uint64
	fee       uint64
	assetJSON string
	batchFile string
)

// txCmd represents the tx command
var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Sign a transaction and append it to a batch file",
	Run:   txRun,
}

func init() {
	rootCmd.AddCommand(txCmd)
	txCmd.Flags().Uint16VarP(&txType, "type", "t", 0, "Transaction type.")
	txCmd.Flags().StringVarP(&to, "to", "r", "", "Recipient account id or name.")
	txCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce for the transaction.")
	txCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
	txCmd.Flags().Uint64VarP(&fee, "fee", "f", 0, "Fee paid by the sender.")
	txCmd.Flags().StringVarP(&assetJSON, "asset", "s", "", "Type specific payload as JSON.")
	txCmd.Flags().StringVarP(&batchFile, "batch", "b", "zblock/batch.json", "Batch file to append the transaction to.")
}

func txRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	ns, err := nameservice.New(accountPath)
	if err != nil {
		log.Fatal(err)
	}

	var recipientID database.AccountID
	if to != "" {
		if recipientID, err = ns.Resolve(to); err != nil {
			log.Fatal(err)
		}
	}

	var asset any
	if assetJSON != "" {
		if !json.Valid([]byte(assetJSON)) {
			log.Fatal("asset is not valid JSON")
		}
		asset = json.RawMessage(assetJSON)
	}

	senderID := database.PublicKeyToAccountID(privateKey.PublicKey)

	tx, err := database.NewTx(database.TxType(txType), nonce, senderID, recipientID, amount, fee, asset)
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	if err := appendBatch(batchFile, signedTx); err != nil {
		log.Fatal(err)
	}

	fmt.Println(signedTx.ID())
}

// appendBatch adds the transaction to the batch stored in the file, creating
// the file when it doesn't exist.
func appendBatch(path string, tx database.Tx) error {
	var txs []database.Tx

	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(content, &txs); err != nil {
			return fmt.Errorf("decoding batch %s: %w", path, err)
		}
	}

	txs = append(txs, tx)

	data, err := json.MarshalIndent(txs, "", "\t")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
