// Package genesis maintains access to the genesis file. The genesis file
// holds the starting balances and the constants the ledger runs with.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset/hello"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset/multisig"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset/transfer"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset/transport"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/verifier"
	"github.com/ardanlabs/ledger/foundation/validate"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time                     `json:"date"`
	ChainID         uint16                        `json:"chain_id"`                                                                 // The chain id represents an unique id for this running instance.
	FeeMode         asset.FeeMode                 `json:"fee_mode" validate:"required,oneof=burn pool"`                             // What happens to the fee a transaction pays.
	FeePool         database.AccountID            `json:"fee_pool,omitempty" validate:"required_if=FeeMode pool,omitempty,account"` // Account receiving fees in pool mode.
	BonusPercent    uint64                        `json:"bonus_percent" validate:"lte=1000"`                                        // Bonus paid by the bonus transfer.
	ExclusiveGroups [][]database.TxType           `json:"exclusive_groups"`                                                         // Types a sender can only use once per batch.
	Balances        map[database.AccountID]uint64 `json:"balances" validate:"dive,keys,account,endkeys"`                            // Starting balances.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Genesis{
		FeeMode:      asset.FeeBurn,
		BonusPercent: transfer.DefaultBonusPercent,
	}

	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.ExclusiveGroups == nil {
		genesis.ExclusiveGroups = verifier.DefaultGroups
	}

	if list := validate.Check(genesis); len(list) > 0 {
		return Genesis{}, fmt.Errorf("genesis %s: %w", path, list)
	}

	return genesis, nil
}

// FeePolicy returns the fee policy configured by the genesis.
func (g Genesis) FeePolicy() asset.FeePolicy {
	return asset.FeePolicy{
		Mode: g.FeeMode,
		Pool: g.FeePool,
	}
}

// Registry constructs the handler registry with every reference handler
// bound to the constants of the genesis.
func (g Genesis) Registry() (*asset.Registry, error) {
	fees := g.FeePolicy()
	if err := fees.Validate(); err != nil {
		return nil, err
	}

	handlers := []struct {
		typ     database.TxType
		handler asset.Handler
	}{
		{asset.TypeTransfer, transfer.New(fees)},
		{asset.TypeTransferBonus, transfer.NewWithBonus(fees, g.BonusPercent)},
		{asset.TypeHello, hello.New(fees)},
		{asset.TypeMultisig, multisig.New(fees)},
		{asset.TypeRegisterPacket, transport.NewRegister(fees)},
		{asset.TypeStartTransport, transport.NewStart(fees)},
		{asset.TypeFinishTransport, transport.NewFinish(fees)},
		{asset.TypeLightAlarm, transport.NewAlarm(fees)},
	}

	reg := asset.NewRegistry()
	for _, h := range handlers {
		if err := reg.Register(h.typ, h.handler); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Verifier constructs the batch verifier for the exclusive groups of the
// genesis.
func (g Genesis) Verifier() *verifier.Verifier {
	return verifier.Default(g.ExclusiveGroups)
}
