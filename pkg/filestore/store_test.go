package filestore

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/sawtable/pkg/txn"
	"github.com/cuemby/sawtable/pkg/txnlog"
	"github.com/cuemby/sawtable/pkg/types"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	boltStore, err := txnlog.NewBoltLogStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { boltStore.Close() })

	head := txnlog.NewFileHead(boltStore, "files", txnlog.RetryPolicy{MaxAttempts: 5, BaseBackoff: 0})
	return NewStore(head)
}

// steppingClock returns a func() time.Time that advances by one second on
// every call, starting from base. Used to make commit ordering in tests
// deterministic instead of relying on wall-clock monotonic non-decrease.
func steppingClock(base time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		t := base.Add(time.Duration(n) * time.Second)
		n++
		return t
	}
}

func newTestStoreWithClock(t *testing.T, clock func() time.Time) *Store {
	t.Helper()
	boltStore, err := txnlog.NewBoltLogStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { boltStore.Close() })

	head := txnlog.NewFileHead(boltStore, "files", txnlog.RetryPolicy{MaxAttempts: 5, BaseBackoff: 0})
	head.Clock = clock
	return NewStore(head)
}

func fileWithRef(filename, partitionID string, records int64) *types.AllReferencesToAFile {
	file, _ := types.NewAllReferencesToAFile(filename, []*types.FileReference{
		{Filename: filename, PartitionID: partitionID, NumberOfRecords: records},
	}, time.Now())
	return file
}

func TestStoreAddFilesAndEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Empty(ctx)
	assert.NoError(t, err)
	assert.True(t, empty)

	err = s.AddFiles(ctx, []*types.AllReferencesToAFile{fileWithRef("a.parquet", "root", 10)})
	assert.NoError(t, err)

	empty, err = s.Empty(ctx)
	assert.NoError(t, err)
	assert.False(t, empty)
}

func TestStoreAddFilesRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	assert.NoError(t, s.AddFiles(ctx, []*types.AllReferencesToAFile{fileWithRef("a.parquet", "root", 10)}))

	err := s.AddFiles(ctx, []*types.AllReferencesToAFile{fileWithRef("a.parquet", "root", 10)})
	assert.ErrorIs(t, err, txn.ErrFileAlreadyExists)
}

func TestStoreAssignJobIDsAndGetFileReferencesWithNoJobID(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	assert.NoError(t, s.AddFiles(ctx, []*types.AllReferencesToAFile{
		fileWithRef("a.parquet", "root", 10),
		fileWithRef("b.parquet", "root", 20),
	}))

	result := s.AssignJobIDs(ctx, []txn.AssignJobIDRequest{{JobID: "job-1", PartitionID: "root", Filenames: []string{"a.parquet"}}})
	assert.True(t, result.Ok())
	assert.Equal(t, 1, result.RequestCount)

	unassigned, err := s.GetFileReferencesWithNoJobID(ctx)
	assert.NoError(t, err)
	assert.Len(t, unassigned, 1)
	assert.Equal(t, "b.parquet", unassigned[0].Filename)
}

func TestStoreReplaceFileReferences(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	assert.NoError(t, s.AddFiles(ctx, []*types.AllReferencesToAFile{
		fileWithRef("in1.parquet", "root", 10),
		fileWithRef("in2.parquet", "root", 20),
	}))
	result := s.AssignJobIDs(ctx, []txn.AssignJobIDRequest{
		{JobID: "job-1", PartitionID: "root", Filenames: []string{"in1.parquet", "in2.parquet"}},
	})
	assert.True(t, result.Ok())

	newRef := &types.FileReference{Filename: "out.parquet", PartitionID: "root", NumberOfRecords: 30}
	err := s.ReplaceFileReferences(ctx, "job-1", "root", []string{"in1.parquet", "in2.parquet"}, newRef)
	assert.NoError(t, err)

	refs, err := s.GetFileReferences(ctx)
	assert.NoError(t, err)
	assert.Len(t, refs, 1)
	assert.Equal(t, "out.parquet", refs[0].Filename)
}

func TestStoreDeleteGarbageCollectedFileReferenceCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	assert.NoError(t, s.AddFiles(ctx, []*types.AllReferencesToAFile{fileWithRef("a.parquet", "root", 10)}))

	result := s.AssignJobIDs(ctx, []txn.AssignJobIDRequest{{JobID: "job-1", PartitionID: "root", Filenames: []string{"a.parquet"}}})
	assert.True(t, result.Ok())
	assert.NoError(t, s.ReplaceFileReferences(ctx, "job-1", "root", []string{"a.parquet"}, &types.FileReference{Filename: "out.parquet", PartitionID: "root", NumberOfRecords: 10}))

	names, err := s.GetReadyForGCFilenamesBefore(ctx, time.Now().Add(time.Minute))
	assert.NoError(t, err)
	assert.Equal(t, []string{"a.parquet"}, names)

	assert.NoError(t, s.DeleteGarbageCollectedFileReferenceCounts(ctx, names))
	empty, err := s.GetReadyForGCFilenamesBefore(ctx, time.Now().Add(time.Minute))
	assert.NoError(t, err)
	assert.Len(t, empty, 0)
}

func TestStoreGetPartitionToReferencedFilesMap(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	assert.NoError(t, s.AddFiles(ctx, []*types.AllReferencesToAFile{
		fileWithRef("a.parquet", "root", 10),
		fileWithRef("b.parquet", "left", 20),
	}))

	m, err := s.GetPartitionToReferencedFilesMap(ctx)
	assert.NoError(t, err)
	assert.Len(t, m["root"], 1)
	assert.Len(t, m["left"], 1)
}

func TestStoreGetAllFilesWithMaxUnreferenced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	assert.NoError(t, s.AddFiles(ctx, []*types.AllReferencesToAFile{fileWithRef("a.parquet", "root", 10)}))

	snap, err := s.GetAllFilesWithMaxUnreferenced(ctx, 5)
	assert.NoError(t, err)
	assert.Len(t, snap.Referenced, 1)
	assert.Len(t, snap.Unreferenced, 0)
}
