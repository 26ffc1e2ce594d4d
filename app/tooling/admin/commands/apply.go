package commands

import (
	"context"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/processor"
	"go.uber.org/zap"
)

// Apply processes the batch of transactions in the file. The transactions
// that were applied are written next to the batch so they can be undone.
func Apply(ctx context.Context, log *zap.SugaredLogger, proc *processor.Processor, path string) error {
	txs, err := ReadBatch(path)
	if err != nil {
		return err
	}

	applied, list := proc.Process(ctx, txs)
	for _, e := range list {
		log.Infow("apply", "status", "rejected", "kind", e.Kind.String(), "txid", e.TxID, "path", e.Path, "message", e.Message)
	}

	if list.Fatal() {
		return list
	}

	if len(applied) == 0 {
		log.Infow("apply", "status", "nothing applied", "txs", len(txs))
		return nil
	}

	appliedPath := path + ".applied"
	if err := WriteBatch(appliedPath, applied); err != nil {
		return fmt.Errorf("writing applied batch: %w", err)
	}

	log.Infow("apply", "status", "committed", "applied", len(applied), "rejected", len(txs)-len(applied), "undo", appliedPath)

	return nil
}

// Undo reverses the batch of applied transactions in the file.
func Undo(ctx context.Context, log *zap.SugaredLogger, proc *processor.Processor, path string) error {
	txs, err := ReadBatch(path)
	if err != nil {
		return err
	}

	if list := proc.Undo(ctx, txs); len(list) > 0 {
		return list
	}

	log.Infow("undo", "status", "committed", "txs", len(txs))

	return nil
}
