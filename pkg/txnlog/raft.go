package txnlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/sawtable/pkg/txn"
	"github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb"
)

// RaftLogStore is a TransactionLogStore replicated via hashicorp/raft,
// grounded on the teacher's Manager.Bootstrap/Apply machinery: the same
// conditional-append contract as BoltLogStore, but durable across node
// loss instead of a single process. Raft's own log/stable stores use
// raft-boltdb exactly as the teacher wires them for cluster metadata;
// the table's transaction entries live in the FSM's in-memory logs,
// snapshotted through raft.FSMSnapshot for compaction.
type RaftLogStore struct {
	raft *raft.Raft
	fsm  *logFSM
}

// RaftConfig configures a RaftLogStore node.
type RaftConfig struct {
	NodeID    string
	BindAddr  string
	DataDir   string
	Bootstrap bool // true for the first node of a new cluster
}

// NewRaftLogStore starts (or joins the local half of) a Raft node backing
// this table's transaction logs.
func NewRaftLogStore(cfg RaftConfig) (*RaftLogStore, error) {
	fsm := &logFSM{logs: make(map[string]map[uint64]txn.Envelope)}

	config := raft.DefaultConfig()
	config.LocalID = raft.ServerID(cfg.NodeID)

	addr, err := net.ResolveTCPAddr("tcp", cfg.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("txnlog: resolve bind address: %w", err)
	}
	transport, err := raft.NewTCPTransport(cfg.BindAddr, addr, 3, 10*time.Second, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("txnlog: create transport: %w", err)
	}

	snapshotStore, err := raft.NewFileSnapshotStore(cfg.DataDir, 2, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("txnlog: create snapshot store: %w", err)
	}

	logStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-log.db"))
	if err != nil {
		return nil, fmt.Errorf("txnlog: create raft log store: %w", err)
	}
	stableStore, err := raftboltdb.NewBoltStore(filepath.Join(cfg.DataDir, "raft-stable.db"))
	if err != nil {
		return nil, fmt.Errorf("txnlog: create raft stable store: %w", err)
	}

	r, err := raft.NewRaft(config, fsm, logStore, stableStore, snapshotStore, transport)
	if err != nil {
		return nil, fmt.Errorf("txnlog: create raft: %w", err)
	}

	store := &RaftLogStore{raft: r, fsm: fsm}

	if cfg.Bootstrap {
		configuration := raft.Configuration{
			Servers: []raft.Server{
				{ID: config.LocalID, Address: transport.LocalAddr()},
			},
		}
		if err := r.BootstrapCluster(configuration).Error(); err != nil {
			return nil, fmt.Errorf("txnlog: bootstrap cluster: %w", err)
		}
	}

	return store, nil
}

// IsLeader reports whether this node currently holds Raft leadership.
func (s *RaftLogStore) IsLeader() bool { return s.raft.State() == raft.Leader }

// AddVoter adds a new node to the Raft cluster. Must be called on the
// leader.
func (s *RaftLogStore) AddVoter(nodeID, address string) error {
	if !s.IsLeader() {
		return fmt.Errorf("txnlog: not the leader, current leader: %s", s.raft.Leader())
	}
	return s.raft.AddVoter(raft.ServerID(nodeID), raft.ServerAddress(address), 0, 10*time.Second).Error()
}

// Append implements TransactionLogStore by replicating the conditional
// insert through the Raft log; the FSM performs the actual existence
// check once the entry is committed, so every node agrees on the
// outcome even under concurrent proposals.
func (s *RaftLogStore) Append(_ context.Context, logName string, number uint64, envelope txn.Envelope) (AppendOutcome, error) {
	cmd := logCommand{LogName: logName, Number: number, Envelope: envelope}
	data, err := json.Marshal(cmd)
	if err != nil {
		return AlreadyCommitted, fmt.Errorf("%w: marshal command: %v", ErrStoreUnavailable, err)
	}

	future := s.raft.Apply(data, 5*time.Second)
	if err := future.Error(); err != nil {
		return AlreadyCommitted, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	switch resp := future.Response().(type) {
	case AppendOutcome:
		return resp, nil
	case error:
		return AlreadyCommitted, fmt.Errorf("%w: %v", ErrStoreUnavailable, resp)
	default:
		return Ok, nil
	}
}

// ReadAfter implements TransactionLogStore, reading from this node's own
// copy of the replicated FSM state (always the latest committed state on
// the leader; may briefly lag on a follower).
func (s *RaftLogStore) ReadAfter(_ context.Context, logName string, after uint64) ([]Record, error) {
	s.fsm.mu.RLock()
	defer s.fsm.mu.RUnlock()

	bucket := s.fsm.logs[logName]
	records := make([]Record, 0, len(bucket))
	for number, env := range bucket {
		if number > after {
			records = append(records, Record{Number: number, Envelope: env})
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Number < records[j].Number })
	return records, nil
}

// Close shuts the Raft node down.
func (s *RaftLogStore) Close() error {
	return s.raft.Shutdown().Error()
}

// logCommand is one Raft log entry: an attempt to append envelope at
// number within logName.
type logCommand struct {
	LogName  string      `json:"logName"`
	Number   uint64      `json:"number"`
	Envelope txn.Envelope `json:"envelope"`
}

// logFSM is the Raft finite state machine holding every table log's
// committed entries in memory, keyed by logName then transaction number.
type logFSM struct {
	mu   sync.RWMutex
	logs map[string]map[uint64]txn.Envelope
}

// Apply applies one committed Raft log entry, returning the same
// AppendOutcome a direct BoltLogStore.Append would.
func (f *logFSM) Apply(entry *raft.Log) interface{} {
	var cmd logCommand
	if err := json.Unmarshal(entry.Data, &cmd); err != nil {
		return fmt.Errorf("txnlog: decode raft command: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := f.logs[cmd.LogName]
	if bucket == nil {
		bucket = make(map[uint64]txn.Envelope)
		f.logs[cmd.LogName] = bucket
	}
	if _, exists := bucket[cmd.Number]; exists {
		return AlreadyCommitted
	}
	bucket[cmd.Number] = cmd.Envelope
	return Ok
}

// Snapshot captures every log's entries for Raft's periodic compaction.
func (f *logFSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	copied := make(map[string]map[uint64]txn.Envelope, len(f.logs))
	for name, bucket := range f.logs {
		b := make(map[uint64]txn.Envelope, len(bucket))
		for k, v := range bucket {
			b[k] = v
		}
		copied[name] = b
	}
	return &logSnapshot{logs: copied}, nil
}

// Restore replaces the FSM's state with a previously persisted snapshot.
func (f *logFSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var logs map[string]map[uint64]txn.Envelope
	if err := json.NewDecoder(rc).Decode(&logs); err != nil {
		return fmt.Errorf("txnlog: decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = logs
	return nil
}

type logSnapshot struct {
	logs map[string]map[uint64]txn.Envelope
}

func (s *logSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := json.NewEncoder(sink).Encode(s.logs); err != nil {
			return err
		}
		return sink.Close()
	}()
	if err != nil {
		sink.Cancel()
	}
	return err
}

func (s *logSnapshot) Release() {}
