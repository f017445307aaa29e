package txnlog

import (
	"context"
	"errors"

	"github.com/cuemby/sawtable/pkg/txn"
)

// ErrStoreUnavailable wraps backend I/O failures distinct from a raced
// AlreadyCommitted response (spec §7).
var ErrStoreUnavailable = errors.New("txnlog: store unavailable")

// AppendOutcome is the result of one conditional Append.
type AppendOutcome int

const (
	// Ok means the entry was written at the requested number.
	Ok AppendOutcome = iota
	// AlreadyCommitted means another writer already holds that number;
	// the caller must refresh its projection and retry at a new number.
	AlreadyCommitted
)

// Record is one committed log entry.
type Record struct {
	Number   uint64
	Envelope txn.Envelope
}

// TransactionLogStore is the append-only log backend shared by every
// table's Files log and Partitions log, distinguished by logName (e.g.
// "files" or "partitions" — see BoltLogStore's bucket layout).
type TransactionLogStore interface {
	// Append writes envelope at number iff no entry already exists
	// there. The check-and-write must be atomic.
	Append(ctx context.Context, logName string, number uint64, envelope txn.Envelope) (AppendOutcome, error)

	// ReadAfter returns every record with Number > after, in ascending
	// order.
	ReadAfter(ctx context.Context, logName string, after uint64) ([]Record, error)

	// Close releases any resources held by the store.
	Close() error
}
