// Package disk implements the committed account set on disk using badger.
// Account records are CBOR encoded and written together in one badger
// transaction so a commit is all or nothing.
package disk

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/fxamacker/cbor/v2"
)

// accountPrefix is prepended to the account id to build a record key.
const accountPrefix = "account/"

// Config represents the configuration for opening the store.
type Config struct {
	DBPath    string
	InMemory  bool
	EvHandler func(v string, args ...any)
}

// Disk represents the badger implementation of the committed account set.
// This implements the accounts.Base interface.
type Disk struct {
	db *badgerdb.DB
}

// New opens the badger database at the configured path, or an in-memory
// database when InMemory is set.
func New(cfg Config) (*Disk, error) {
	path := cfg.DBPath
	if cfg.InMemory {
		path = ""
	}

	opts := badgerdb.DefaultOptions(path).
		WithInMemory(cfg.InMemory).
		WithLogger(evLogger{ev: cfg.EvHandler})

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Disk{db: db}, nil
}

// Close cleanly releases the database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Lookup reads and decodes the committed account.
func (d *Disk) Lookup(ctx context.Context, accountID database.AccountID) (database.Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return database.Account{}, false, err
	}

	var account database.Account
	var exists bool

	err := d.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(accountID))
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		exists = true
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &account)
		})
	})
	if err != nil {
		return database.Account{}, false, fmt.Errorf("lookup %s: %w", accountID, err)
	}

	return account, exists, nil
}

// Apply writes every account inside one badger transaction.
func (d *Disk) Apply(ctx context.Context, accounts []database.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := d.db.Update(func(txn *badgerdb.Txn) error {
		for _, account := range accounts {
			data, err := cbor.Marshal(account)
			if err != nil {
				return fmt.Errorf("encode %s: %w", account.AccountID, err)
			}

			if err := txn.Set(key(account.AccountID), data); err != nil {
				return fmt.Errorf("set %s: %w", account.AccountID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	return nil
}

// Accounts returns every committed account in key order.
func (d *Disk) Accounts(ctx context.Context) ([]database.Account, error) {
	var out []database.Account

	err := d.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(accountPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var account database.Account
			err := it.Item().Value(func(val []byte) error {
				return cbor.Unmarshal(val, &account)
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}

			out = append(out, account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Reset removes every account from the database.
func (d *Disk) Reset() error {
	return d.db.DropPrefix([]byte(accountPrefix))
}

// =============================================================================

func key(accountID database.AccountID) []byte {
	return []byte(accountPrefix + string(accountID))
}

// evLogger routes badger warnings and errors to the event handler.
type evLogger struct {
	ev func(v string, args ...any)
}

func (l evLogger) Errorf(format string, args ...any) {
	l.log("ERROR: "+format, args...)
}

func (l evLogger) Warningf(format string, args ...any) {
	l.log("WARNING: "+format, args...)
}

func (evLogger) Infof(string, ...any)  {}
func (evLogger) Debugf(string, ...any) {}

func (l evLogger) log(format string, args ...any) {
	if l.ev != nil {
		l.ev("disk: badger: "+format, args...)
	}
}
