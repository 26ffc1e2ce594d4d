// Package verifier implements the cross transaction checks run over a batch
// before any transaction is applied. Rules only read the batch and a
// snapshot of the staged accounts; they never change anything.
package verifier

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// RuleFunc represents a function that checks a batch of transactions for
// one kind of conflict. A conflict error carries the ids of every
// transaction involved as its actual value.
type RuleFunc func(txs []database.Tx, lookup accounts.Lookup) errs.List

// DefaultGroups are the transaction types that change the registration
// state of the sender and can't share a batch.
var DefaultGroups = [][]database.TxType{
	{asset.TypeHello, asset.TypeMultisig},
}

// Verifier runs a set of rules over a batch.
type Verifier struct {
	rules []RuleFunc
}

// New constructs a verifier that runs the rules in order.
func New(rules ...RuleFunc) *Verifier {
	return &Verifier{
		rules: rules,
	}
}

// Default constructs a verifier with the duplicate id rule and the
// exclusive group rule for the specified groups.
func Default(groups [][]database.TxType) *Verifier {
	return New(DuplicateIDs, ExclusiveGroups(groups...))
}

// Verify runs every rule and returns every conflict found.
func (v *Verifier) Verify(txs []database.Tx, lookup accounts.Lookup) errs.List {
	var list errs.List
	for _, rule := range v.rules {
		list = append(list, rule(txs, lookup)...)
	}

	return list
}

// Excluded returns the ids of every transaction named by a conflict.
func Excluded(list errs.List) map[string]bool {
	ids := make(map[string]bool)
	for _, e := range list {
		if e.Kind != errs.KindConflictingTransactions {
			continue
		}

		ids[e.TxID] = true
		if txIDs, ok := e.Actual.([]string); ok {
			for _, txID := range txIDs {
				ids[txID] = true
			}
		}
	}

	return ids
}

// =============================================================================

// ExclusiveGroups returns a rule allowing at most one transaction per sender
// from each group. Every transaction of a group a sender used more than once
// is reported by a single conflict.
func ExclusiveGroups(groups ...[]database.TxType) RuleFunc {
	return func(txs []database.Tx, _ accounts.Lookup) errs.List {
		var list errs.List

		for _, group := range groups {
			members := make(map[database.TxType]bool, len(group))
			for _, typ := range group {
				members[typ] = true
			}

			var senders []database.AccountID
			bySender := make(map[database.AccountID][]string)
			for _, tx := range txs {
				if !members[tx.Type] {
					continue
				}
				if _, exists := bySender[tx.SenderID]; !exists {
					senders = append(senders, tx.SenderID)
				}
				bySender[tx.SenderID] = append(bySender[tx.SenderID], tx.ID())
			}

			for _, sender := range senders {
				txIDs := bySender[sender]
				if len(txIDs) < 2 {
					continue
				}

				e := errs.Newf(errs.KindConflictingTransactions, txIDs[0], "type", "sender %s has %d transactions of exclusive group %v", sender, len(txIDs), group)
				list = append(list, e.WithValues(txIDs, fmt.Sprintf("one transaction of %v", group)))
			}
		}

		return list
	}
}

// DuplicateIDs reports a transaction that appears more than once in the
// batch. Every copy is excluded.
func DuplicateIDs(txs []database.Tx, _ accounts.Lookup) errs.List {
	var list errs.List

	count := make(map[string]int)
	for _, tx := range txs {
		count[tx.ID()]++
	}

	reported := make(map[string]bool)
	for _, tx := range txs {
		txID := tx.ID()
		if count[txID] < 2 || reported[txID] {
			continue
		}
		reported[txID] = true

		e := errs.Newf(errs.KindConflictingTransactions, txID, "", "transaction appears %d times in the batch", count[txID])
		list = append(list, e.WithValues([]string{txID}, "one copy"))
	}

	return list
}
