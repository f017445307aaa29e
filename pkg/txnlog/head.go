package txnlog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cuemby/sawtable/pkg/statestore"
	"github.com/cuemby/sawtable/pkg/txn"
)

// ErrConcurrencyExhausted is returned by Add when commit_retry_limit
// consecutive AlreadyCommitted responses are exhausted without success
// (spec §7's ConcurrencyExhausted).
var ErrConcurrencyExhausted = errors.New("txnlog: commit retries exhausted")

// RetryPolicy bounds the optimistic commit loop (spec.md §5):
// commit_retry_limit attempts, each backing off commit_backoff_base_ms
// times the attempt number plus jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// DefaultRetryPolicy matches the spec's illustrative "e.g. 10" bound.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 10, BaseBackoff: 50 * time.Millisecond}
}

func (p RetryPolicy) sleep(attempt int) {
	if p.BaseBackoff <= 0 {
		return
	}
	jitter := time.Duration(rand.Int63n(int64(p.BaseBackoff) + 1))
	time.Sleep(p.BaseBackoff*time.Duration(attempt) + jitter)
}

// CommitObserver receives commit-loop telemetry from FileHead/PartitionHead.
// Left nil by the New*Head constructors; a caller that wants the commit
// loop's metrics recorded (e.g. pkg/table, wiring pkg/metrics's recorder)
// assigns one after construction. Kept as an interface rather than a
// direct pkg/metrics import to avoid a txnlog -> metrics -> filestore ->
// txnlog import cycle (pkg/metrics already depends on pkg/filestore).
type CommitObserver interface {
	// ObserveCommit reports one Add call: ok is false only when retries
	// were exhausted, retries counts the AlreadyCommitted responses seen
	// before the terminal outcome, and duration spans the whole call.
	ObserveCommit(logName string, ok bool, retries int, duration time.Duration)
	// ObserveHeadLag reports how many log entries the most recent Update
	// call just replayed into the cached projection.
	ObserveHeadLag(logName string, entriesReplayed int)
}

// FileHead is the TransactionLogHead (C5) over the Files projection: a
// per-client cache of statestore.Files plus the last transaction number
// it reflects. Not safe for concurrent use by multiple goroutines — each
// caller that needs its own view constructs its own FileHead.
type FileHead struct {
	store      TransactionLogStore
	logName    string
	retry      RetryPolicy
	state      *statestore.Files
	lastNumber uint64

	// Clock supplies the updateTime passed to Transaction.Apply. Defaults
	// to time.Now; tests inject a fixed or stepped clock for determinism
	// (spec.md §9's "updateTime is injected" design note).
	Clock func() time.Time

	// Observer, if set, is fed commit and replay telemetry.
	Observer CommitObserver
}

// NewFileHead builds an empty FileHead over the log of store named by
// logName.
func NewFileHead(store TransactionLogStore, logName string, retry RetryPolicy) *FileHead {
	return &FileHead{store: store, logName: logName, retry: retry, state: statestore.NewFiles(), Clock: time.Now}
}

func (h *FileHead) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// Now reads the head's clock, the same clock Add and Update use for the
// updateTime they pass to Apply. Each call reads the clock anew, so the
// value is not the exact updateTime of the next commit. Exposed so
// callers building request payloads (e.g. filestore.RunSplitCascade) can
// timestamp them from the same clock the head commits against.
func (h *FileHead) Now() time.Time { return h.now() }

// Update replays every entry committed since the last Update into the
// cached projection.
func (h *FileHead) Update(ctx context.Context) error {
	records, err := h.store.ReadAfter(ctx, h.logName, h.lastNumber)
	if err != nil {
		return err
	}
	for _, rec := range records {
		t, err := txn.DecodeFile(rec.Envelope)
		if err != nil {
			return fmt.Errorf("txnlog: decode file transaction at %d: %w", rec.Number, err)
		}
		// Entries in the log were already validated by whichever client
		// committed them; replay applies unconditionally.
		t.Apply(h.state, h.now())
		h.lastNumber = rec.Number
	}
	if h.Observer != nil {
		h.Observer.ObserveHeadLag(h.logName, len(records))
	}
	return nil
}

// State returns the current cached projection. Callers must Update
// before relying on it reflecting the latest committed transactions.
func (h *FileHead) State() *statestore.Files { return h.state }

// Add runs the optimistic commit loop for t: Update, validate, append at
// lastNumber+1, retrying on AlreadyCommitted up to retry.MaxAttempts.
// Validation failures return immediately without retry, per spec §5.
func (h *FileHead) Add(ctx context.Context, t txn.FileTransaction) error {
	start := h.now()
	for attempt := 1; attempt <= h.retry.MaxAttempts; attempt++ {
		if err := h.Update(ctx); err != nil {
			return err
		}
		if err := t.Validate(h.state); err != nil {
			return err
		}
		envelope, err := txn.EncodeFile(t)
		if err != nil {
			return err
		}
		outcome, err := h.store.Append(ctx, h.logName, h.lastNumber+1, envelope)
		if err != nil {
			return err
		}
		if outcome == Ok {
			t.Apply(h.state, h.now())
			h.lastNumber++
			if h.Observer != nil {
				h.Observer.ObserveCommit(h.logName, true, attempt-1, h.now().Sub(start))
			}
			return nil
		}
		h.retry.sleep(attempt)
	}
	if h.Observer != nil {
		h.Observer.ObserveCommit(h.logName, false, h.retry.MaxAttempts, h.now().Sub(start))
	}
	return ErrConcurrencyExhausted
}

// PartitionHead is the TransactionLogHead (C5) over the Partitions
// projection. Same single-owner, no-internal-locking contract as
// FileHead.
type PartitionHead struct {
	store      TransactionLogStore
	logName    string
	retry      RetryPolicy
	state      *statestore.Partitions
	lastNumber uint64

	// Clock supplies the updateTime passed to Transaction.Apply. Defaults
	// to time.Now; tests inject a fixed or stepped clock for determinism
	// (spec.md §9's "updateTime is injected" design note).
	Clock func() time.Time

	// Observer, if set, is fed commit and replay telemetry.
	Observer CommitObserver
}

// NewPartitionHead builds an empty PartitionHead over the log of store
// named by logName.
func NewPartitionHead(store TransactionLogStore, logName string, retry RetryPolicy) *PartitionHead {
	return &PartitionHead{store: store, logName: logName, retry: retry, state: statestore.NewPartitions(), Clock: time.Now}
}

func (h *PartitionHead) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// Update replays every entry committed since the last Update into the
// cached projection.
func (h *PartitionHead) Update(ctx context.Context) error {
	records, err := h.store.ReadAfter(ctx, h.logName, h.lastNumber)
	if err != nil {
		return err
	}
	for _, rec := range records {
		t, err := txn.DecodePartition(rec.Envelope)
		if err != nil {
			return fmt.Errorf("txnlog: decode partition transaction at %d: %w", rec.Number, err)
		}
		t.Apply(h.state, h.now())
		h.lastNumber = rec.Number
	}
	if h.Observer != nil {
		h.Observer.ObserveHeadLag(h.logName, len(records))
	}
	return nil
}

// State returns the current cached projection.
func (h *PartitionHead) State() *statestore.Partitions { return h.state }

// Add runs the optimistic commit loop for t.
func (h *PartitionHead) Add(ctx context.Context, t txn.PartitionTransaction) error {
	start := h.now()
	for attempt := 1; attempt <= h.retry.MaxAttempts; attempt++ {
		if err := h.Update(ctx); err != nil {
			return err
		}
		if err := t.Validate(h.state); err != nil {
			return err
		}
		envelope, err := txn.EncodePartition(t)
		if err != nil {
			return err
		}
		outcome, err := h.store.Append(ctx, h.logName, h.lastNumber+1, envelope)
		if err != nil {
			return err
		}
		if outcome == Ok {
			t.Apply(h.state, h.now())
			h.lastNumber++
			if h.Observer != nil {
				h.Observer.ObserveCommit(h.logName, true, attempt-1, h.now().Sub(start))
			}
			return nil
		}
		h.retry.sleep(attempt)
	}
	if h.Observer != nil {
		h.Observer.ObserveCommit(h.logName, false, h.retry.MaxAttempts, h.now().Sub(start))
	}
	return ErrConcurrencyExhausted
}
