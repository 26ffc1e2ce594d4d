package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Account(t *testing.T) {
	t.Log("Given the need to show the accounts behind the key files.")
	{
		dir := t.TempDir()

		ids := make(map[string]database.AccountID)
		for _, name := range []string{"kennedy", "bill"} {
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
			}
			if err := crypto.SaveECDSA(filepath.Join(dir, name+keyExtenstion), privateKey); err != nil {
				t.Fatalf("\t%s\tShould be able to save the key: %v", failed, err)
			}
			ids[name] = database.PublicKeyToAccountID(privateKey.PublicKey)
		}

		t.Logf("\tTest 0:\tWhen showing the selected key.")
		{
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"address", "-p", dir, "-a", "kennedy"})

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the command: %v", failed, err)
			}

			fields := strings.Fields(out.String())
			if len(fields) != 2 || fields[0] != "kennedy" || fields[1] != string(ids["kennedy"]) {
				t.Fatalf("\t%s\tTest 0:\tShould print the name and account id: %q", failed, out.String())
			}
			t.Logf("\t%s\tTest 0:\tShould print the name and account id.", success)
		}

		t.Logf("\tTest 1:\tWhen listing every key.")
		{
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs([]string{"account", "--all", "-p", dir})

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to run the command: %v", failed, err)
			}

			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			if len(lines) != 2 || !strings.HasPrefix(lines[0], "bill") || !strings.HasSuffix(lines[1], string(ids["kennedy"])) {
				t.Fatalf("\t%s\tTest 1:\tShould list every account ordered by name: %q", failed, out.String())
			}
			t.Logf("\t%s\tTest 1:\tShould list every account ordered by name.", success)
		}
	}
}
