package txnlog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/sawtable/pkg/txn"
	bolt "go.etcd.io/bbolt"
)

// BoltLogStore is the embedded, single-process TransactionLogStore,
// grounded on the teacher's bucket-per-concern BoltStore: one bucket per
// logName, keys are big-endian uint64 transaction numbers, values are
// the canonical JSON transaction envelope.
type BoltLogStore struct {
	db *bolt.DB
}

// NewBoltLogStore opens (creating if absent) a bbolt database under
// dataDir for a table's transaction logs.
func NewBoltLogStore(dataDir string) (*BoltLogStore, error) {
	dbPath := filepath.Join(dataDir, "txnlog.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("txnlog: open %s: %w", dbPath, err)
	}
	return &BoltLogStore{db: db}, nil
}

func numberKey(number uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, number)
	return key
}

func (s *BoltLogStore) bucket(tx *bolt.Tx, logName string) (*bolt.Bucket, error) {
	b, err := tx.CreateBucketIfNotExists([]byte(logName))
	if err != nil {
		return nil, fmt.Errorf("txnlog: create bucket %q: %w", logName, err)
	}
	return b, nil
}

// Append implements TransactionLogStore.
func (s *BoltLogStore) Append(_ context.Context, logName string, number uint64, envelope txn.Envelope) (AppendOutcome, error) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return AlreadyCommitted, fmt.Errorf("%w: marshal envelope: %v", ErrStoreUnavailable, err)
	}

	outcome := Ok
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := s.bucket(tx, logName)
		if err != nil {
			return err
		}
		key := numberKey(number)
		if b.Get(key) != nil {
			outcome = AlreadyCommitted
			return nil
		}
		return b.Put(key, data)
	})
	if err != nil {
		return AlreadyCommitted, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return outcome, nil
}

// ReadAfter implements TransactionLogStore.
func (s *BoltLogStore) ReadAfter(_ context.Context, logName string, after uint64) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(logName))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		start := numberKey(after + 1)
		for k, v := c.Seek(start); k != nil; k, v = c.Next() {
			var env txn.Envelope
			if err := json.Unmarshal(v, &env); err != nil {
				return fmt.Errorf("txnlog: decode entry at %x: %w", k, err)
			}
			records = append(records, Record{Number: binary.BigEndian.Uint64(k), Envelope: env})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

// Close implements TransactionLogStore.
func (s *BoltLogStore) Close() error {
	return s.db.Close()
}
