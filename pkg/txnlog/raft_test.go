package txnlog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cuemby/sawtable/pkg/txn"
	"github.com/hashicorp/raft"
	"github.com/stretchr/testify/assert"
)

func encodedCommand(t *testing.T, cmd logCommand) []byte {
	t.Helper()
	data, err := json.Marshal(cmd)
	assert.NoError(t, err)
	return data
}

func TestLogFSMApplyAppendsAndDetectsConflict(t *testing.T) {
	fsm := &logFSM{logs: make(map[string]map[uint64]txn.Envelope)}
	env, err := txn.EncodeFile(txn.ClearFiles{})
	assert.NoError(t, err)

	resp := fsm.Apply(&raft.Log{Data: encodedCommand(t, logCommand{LogName: "files", Number: 1, Envelope: env})})
	assert.Equal(t, Ok, resp)

	resp = fsm.Apply(&raft.Log{Data: encodedCommand(t, logCommand{LogName: "files", Number: 1, Envelope: env})})
	assert.Equal(t, AlreadyCommitted, resp)
}

func TestLogFSMApplyRejectsMalformedEntry(t *testing.T) {
	fsm := &logFSM{logs: make(map[string]map[uint64]txn.Envelope)}
	resp := fsm.Apply(&raft.Log{Data: []byte("not json")})
	_, isErr := resp.(error)
	assert.True(t, isErr)
}

func TestLogFSMSnapshotAndRestoreRoundTrip(t *testing.T) {
	fsm := &logFSM{logs: make(map[string]map[uint64]txn.Envelope)}
	env, err := txn.EncodeFile(txn.ClearFiles{})
	assert.NoError(t, err)
	fsm.Apply(&raft.Log{Data: encodedCommand(t, logCommand{LogName: "files", Number: 1, Envelope: env})})

	snap, err := fsm.Snapshot()
	assert.NoError(t, err)

	var buf bytes.Buffer
	assert.NoError(t, snap.(*logSnapshot).Persist(&fakeSnapshotSink{Buffer: &buf}))

	restored := &logFSM{logs: make(map[string]map[uint64]txn.Envelope)}
	assert.NoError(t, restored.Restore(&fakeReadCloser{Buffer: &buf}))

	assert.Equal(t, fsm.logs, restored.logs)
}

type fakeSnapshotSink struct{ *bytes.Buffer }

func (f *fakeSnapshotSink) ID() string    { return "snap-1" }
func (f *fakeSnapshotSink) Cancel() error { return nil }
func (f *fakeSnapshotSink) Close() error  { return nil }

type fakeReadCloser struct{ *bytes.Buffer }

func (f *fakeReadCloser) Close() error { return nil }
