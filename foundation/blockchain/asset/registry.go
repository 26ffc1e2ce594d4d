package asset

import (
	"sort"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/errs"
)

// Registry maps a transaction type to the handler that processes it.
type Registry struct {
	mu       sync.RWMutex
	handlers map[database.TxType]Handler
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[database.TxType]Handler),
	}
}

// Register binds the handler to the transaction type. Registering a type
// twice is a configuration error.
func (r *Registry) Register(typ database.TxType, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[typ]; exists {
		return errs.Newf(errs.KindDuplicateRegistration, "", "type", "transaction type %d already registered", typ).WithValues(typ, "unregistered type")
	}

	r.handlers[typ] = handler
	return nil
}

// Lookup returns the handler for the transaction type.
func (r *Registry) Lookup(typ database.TxType) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, exists := r.handlers[typ]
	if !exists {
		return nil, errs.Newf(errs.KindUnknownTransactionType, "", "type", "no handler for transaction type %d", typ).WithValues(typ, "registered type")
	}

	return handler, nil
}

// Types returns the registered transaction types in order.
func (r *Registry) Types() []database.TxType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]database.TxType, 0, len(r.handlers))
	for typ := range r.handlers {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}
