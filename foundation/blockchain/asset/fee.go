package asset

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// FeeMode decides what happens to the fee a transaction pays.
type FeeMode string

// Set of fee modes.
const (
	FeeBurn FeeMode = "burn" // The fee leaves circulation.
	FeePool FeeMode = "pool" // The fee is credited to the pool account.
)

// FeePolicy represents the fee disposal configured for the ledger.
type FeePolicy struct {
	Mode FeeMode
	Pool database.AccountID
}

// Burn is the fee policy where fees are removed from circulation.
var Burn = FeePolicy{Mode: FeeBurn}

// Validate checks the policy is usable.
func (fp FeePolicy) Validate() error {
	switch fp.Mode {
	case FeeBurn:
		return nil
	case FeePool:
		if !fp.Pool.IsAccountID() {
			return fmt.Errorf("fee pool account %q is not properly formatted", fp.Pool)
		}
		return nil
	}

	return fmt.Errorf("unknown fee mode %q", fp.Mode)
}

// Selectors returns the accounts a handler must cache to charge or refund
// a fee under this policy.
func (fp FeePolicy) Selectors() []accounts.Selector {
	if fp.Mode != FeePool {
		return nil
	}
	return []accounts.Selector{accounts.OrNew(fp.Pool)}
}
