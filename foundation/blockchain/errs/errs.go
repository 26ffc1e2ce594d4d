// Package errs provides the structured validation errors reported by every
// stage of transaction processing. Errors are data: a batch can report many
// problems from one call and a malformed transaction never panics the node.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a validation error.
type Kind int

// Set of error kinds reported while processing transactions.
const (
	KindStructural Kind = iota + 1
	KindPreconditionFailed
	KindInsufficientFunds
	KindUnknownTransactionType
	KindDuplicateRegistration
	KindUncachedAccount
	KindConflictingTransactions
	KindNotFound
	KindStoreClosed
	KindCanceled
	KindStorage
)

var kindNames = map[Kind]string{
	KindStructural:              "StructuralError",
	KindPreconditionFailed:      "PreconditionFailed",
	KindInsufficientFunds:       "InsufficientFunds",
	KindUnknownTransactionType:  "UnknownTransactionType",
	KindDuplicateRegistration:   "DuplicateRegistration",
	KindUncachedAccount:         "UncachedAccountError",
	KindConflictingTransactions: "ConflictingTransactions",
	KindNotFound:                "NotFound",
	KindStoreClosed:             "StoreClosed",
	KindCanceled:                "Canceled",
	KindStorage:                 "StorageError",
}

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	if name, exists := kindNames[k]; exists {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Fatal reports whether the kind represents a programming error. These
// are never retried by a caller.
func (k Kind) Fatal() bool {
	switch k {
	case KindUncachedAccount, KindDuplicateRegistration, KindStoreClosed:
		return true
	}
	return false
}

// Sentinel errors so callers can use errors.Is against any ValidationError.
var (
	ErrStructural              = sentinel{KindStructural}
	ErrPreconditionFailed      = sentinel{KindPreconditionFailed}
	ErrInsufficientFunds       = sentinel{KindInsufficientFunds}
	ErrUnknownTransactionType  = sentinel{KindUnknownTransactionType}
	ErrDuplicateRegistration   = sentinel{KindDuplicateRegistration}
	ErrUncachedAccount         = sentinel{KindUncachedAccount}
	ErrConflictingTransactions = sentinel{KindConflictingTransactions}
	ErrNotFound                = sentinel{KindNotFound}
	ErrStoreClosed             = sentinel{KindStoreClosed}
	ErrCanceled                = sentinel{KindCanceled}
	ErrStorage                 = sentinel{KindStorage}
)

type sentinel struct {
	kind Kind
}

func (s sentinel) Error() string {
	return s.kind.String()
}

// =============================================================================

// ValidationError describes one problem found with a transaction or with the
// account state it was applied against.
type ValidationError struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	TxID     string `json:"tx_id,omitempty"`
	Path     string `json:"path,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// New constructs a validation error of the specified kind.
func New(kind Kind, txID string, path string, message string) ValidationError {
	return ValidationError{
		Kind:    kind,
		Message: message,
		TxID:    txID,
		Path:    path,
	}
}

// Newf constructs a validation error using a format string for the message.
func Newf(kind Kind, txID string, path string, format string, args ...any) ValidationError {
	return New(kind, txID, path, fmt.Sprintf(format, args...))
}

// WithValues returns a copy of the error carrying the actual value found and
// a hint about the value that was expected.
func (e ValidationError) WithValues(actual any, expected string) ValidationError {
	e.Actual = actual
	e.Expected = expected
	return e
}

// WithTxID returns a copy of the error associated with the transaction id.
func (e ValidationError) WithTxID(txID string) ValidationError {
	e.TxID = txID
	return e
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.TxID != "" {
		fmt.Fprintf(&b, ": tx[%s]", e.TxID)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Actual != nil || e.Expected != "" {
		fmt.Fprintf(&b, ": got %v, exp %s", e.Actual, e.Expected)
	}
	return b.String()
}

// Is matches the error against the sentinel of its kind.
func (e ValidationError) Is(target error) bool {
	s, ok := target.(sentinel)
	return ok && s.kind == e.Kind
}

// Fatal reports whether this error is a programming error.
func (e ValidationError) Fatal() bool {
	return e.Kind.Fatal()
}

// =============================================================================

// List is the sequence of validation errors returned by the public
// operations of the processing core.
type List []ValidationError

// Of constructs a list holding a single error.
func Of(e ValidationError) List {
	return List{e}
}

// Error implements the error interface.
func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Err returns the list as an error value or nil when the list is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

// Is reports whether any error in the list matches the target.
func (l List) Is(target error) bool {
	for _, e := range l {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

// Fatal reports whether the list contains a programming error.
func (l List) Fatal() bool {
	for _, e := range l {
		if e.Fatal() {
			return true
		}
	}
	return false
}

// Count returns the number of errors of the specified kind.
func (l List) Count(kind Kind) int {
	var n int
	for _, e := range l {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// WithTxID returns a copy of the list where every error without a
// transaction id is associated with the specified one.
func (l List) WithTxID(txID string) List {
	if len(l) == 0 {
		return l
	}

	out := make(List, len(l))
	for i, e := range l {
		if e.TxID == "" {
			e.TxID = txID
		}
		out[i] = e
	}
	return out
}

// From converts any error into a List. Validation errors and lists keep
// their structure, anything else is reported as a storage error.
func From(err error) List {
	if err == nil {
		return nil
	}

	var l List
	if errors.As(err, &l) {
		return l
	}

	var ve ValidationError
	if errors.As(err, &ve) {
		return List{ve}
	}

	return List{New(KindStorage, "", "", err.Error())}
}
