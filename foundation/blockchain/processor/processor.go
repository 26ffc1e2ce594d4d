// Package processor is the core API for applying and undoing batches of
// transactions against the committed accounts. A batch is applied all or
// nothing: the accounts are staged in an overlay that is only committed when
// every surviving transaction applied cleanly.
package processor

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/accounts"
	"github.com/ardanlabs/ledger/foundation/blockchain/asset"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/verifier"
	"golang.org/x/sync/errgroup"
)

// EventHandler defines a function that is called when events
// occur in the processing of a batch.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a processor.
type Config struct {
	Base      accounts.Base
	Registry  *asset.Registry
	Verifier  *verifier.Verifier
	Workers   int
	EvHandler EventHandler
}

// Processor manages the application of transaction batches. Batches are
// processed one at a time.
type Processor struct {
	base      accounts.Base
	registry  *asset.Registry
	verifier  *verifier.Verifier
	workers   int
	evHandler EventHandler

	mu sync.Mutex
}

// New constructs a processor for use.
func New(cfg Config) (*Processor, error) {
	if cfg.Base == nil {
		return nil, errors.New("base account store is required")
	}

	if cfg.Registry == nil {
		return nil, errors.New("handler registry is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	ver := cfg.Verifier
	if ver == nil {
		ver = verifier.New()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := Processor{
		base:      cfg.Base,
		registry:  cfg.Registry,
		verifier:  ver,
		workers:   workers,
		evHandler: ev,
	}

	return &p, nil
}

// entry is a transaction of the batch with its resolved handler.
type entry struct {
	tx      database.Tx
	id      string
	handler asset.Handler
}

// Process applies the batch. Transactions with an unknown type, or that fail
// to prepare, fail validation or conflict with another transaction are
// excluded and reported. The remaining transactions are applied in order and
// committed together; the first apply error discards the whole batch. The
// transactions that were committed are returned with every error found.
func (p *Processor) Process(ctx context.Context, txs []database.Tx) ([]database.Tx, errs.List) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evHandler("processor: Process: started: txs[%d]", len(txs))
	defer p.evHandler("processor: Process: completed")

	overlay := accounts.NewOverlay(p.base)
	defer overlay.Discard()

	// Resolve the handler for every transaction.
	entries, list := p.resolve(txs)

	// Declare the account dependencies of every transaction.
	prepared := p.prepare(ctx, overlay, entries)
	if err := ctx.Err(); err != nil {
		return nil, append(list, canceled(err))
	}

	// Validate every transaction, reporting every failure.
	var survivors []entry
	for i, e := range entries {
		failed := false

		if l := prepared[i]; len(l) > 0 {
			list = append(list, l...)
			failed = true
		}

		if l := e.handler.ValidateAsset(e.tx); len(l) > 0 {
			list = append(list, l.WithTxID(e.id)...)
			failed = true
		}

		if failed {
			p.evHandler("processor: Process: excluded: tx[%s]", e.tx)
			continue
		}
		survivors = append(survivors, e)
	}

	// Look for conflicts between the surviving transactions.
	survivors, conflicts := p.verify(overlay, survivors)
	list = append(list, conflicts...)

	// Apply the survivors in order. Any failure aborts the batch.
	applied := make([]database.Tx, 0, len(survivors))
	for _, e := range survivors {
		if err := ctx.Err(); err != nil {
			return nil, append(list, canceled(err))
		}

		if l := e.handler.ApplyAsset(e.tx, overlay); len(l) > 0 {
			p.evHandler("processor: Process: ABORT: tx[%s]: %s", e.tx, l)
			return nil, append(list, l.WithTxID(e.id)...)
		}

		applied = append(applied, e.tx)
	}

	if err := ctx.Err(); err != nil {
		return nil, append(list, canceled(err))
	}

	if err := overlay.Commit(ctx); err != nil {
		return nil, append(list, errs.From(err)...)
	}

	p.evHandler("processor: Process: committed: applied[%d] rejected[%d]", len(applied), len(txs)-len(applied))

	return applied, list
}

// Undo reverses a batch that was applied. Every transaction is undone in
// reverse order and the result is committed together. Any error aborts the
// undo and leaves the committed accounts unchanged.
func (p *Processor) Undo(ctx context.Context, txs []database.Tx) errs.List {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.evHandler("processor: Undo: started: txs[%d]", len(txs))
	defer p.evHandler("processor: Undo: completed")

	overlay := accounts.NewOverlay(p.base)
	defer overlay.Discard()

	entries, list := p.resolve(txs)
	if len(list) > 0 {
		return list
	}

	for i, l := range p.prepare(ctx, overlay, entries) {
		list = append(list, l...)
		list = append(list, entries[i].handler.ValidateAsset(entries[i].tx).WithTxID(entries[i].id)...)
	}
	if err := ctx.Err(); err != nil {
		return append(list, canceled(err))
	}
	if len(list) > 0 {
		return list
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return errs.Of(canceled(err))
		}

		e := entries[i]
		if l := e.handler.UndoAsset(e.tx, overlay); len(l) > 0 {
			p.evHandler("processor: Undo: ABORT: tx[%s]: %s", e.tx, l)
			return l.WithTxID(e.id)
		}
	}

	if err := overlay.Commit(ctx); err != nil {
		return errs.From(err)
	}

	return nil
}

// =============================================================================

// resolve looks up the handler of every transaction. Transactions of an
// unknown type are reported and dropped.
func (p *Processor) resolve(txs []database.Tx) ([]entry, errs.List) {
	var list errs.List

	entries := make([]entry, 0, len(txs))
	for _, tx := range txs {
		id := tx.ID()

		handler, err := p.registry.Lookup(tx.Type)
		if err != nil {
			list = append(list, errs.From(err).WithTxID(id)...)
			continue
		}

		entries = append(entries, entry{tx: tx, id: id, handler: handler})
	}

	return entries, list
}

// prepare runs the prepare step of every entry concurrently and returns the
// errors reported for each entry by index.
func (p *Processor) prepare(ctx context.Context, overlay *accounts.Overlay, entries []entry) []errs.List {
	results := make([]errs.List, len(entries))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = errs.Of(canceled(err).WithTxID(e.id))
				return nil
			}

			if err := e.handler.Prepare(ctx, e.tx, overlay); err != nil {
				results[i] = errs.From(err).WithTxID(e.id)
			}
			return nil
		})
	}

	g.Wait()

	return results
}

// verify runs the batch verifier and drops every transaction it excludes.
func (p *Processor) verify(lookup accounts.Lookup, entries []entry) ([]entry, errs.List) {
	txs := make([]database.Tx, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}

	conflicts := p.verifier.Verify(txs, lookup)
	if len(conflicts) == 0 {
		return entries, nil
	}

	excluded := verifier.Excluded(conflicts)

	survivors := make([]entry, 0, len(entries))
	for _, e := range entries {
		if excluded[e.id] {
			p.evHandler("processor: Process: conflict: tx[%s]", e.tx)
			continue
		}
		survivors = append(survivors, e)
	}

	return survivors, conflicts
}

func canceled(err error) errs.ValidationError {
	return errs.New(errs.KindCanceled, "", "", err.Error())
}
