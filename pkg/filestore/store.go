package filestore

import (
	"context"
	"time"

	"github.com/cuemby/sawtable/pkg/statestore"
	"github.com/cuemby/sawtable/pkg/txn"
	"github.com/cuemby/sawtable/pkg/txnlog"
	"github.com/cuemby/sawtable/pkg/types"
)

// BatchResult is the aggregate outcome of one all-or-nothing batch
// mutation. Every Store batch operation commits as a single
// transaction, so every request in the batch shares its fate: either
// the whole batch applied, or none of it did and Err names why.
type BatchResult struct {
	RequestCount int
	Err          error
}

// Ok reports whether every request in the batch was applied.
func (r BatchResult) Ok() bool { return r.Err == nil }

// Store is FileReferenceStore (C6): every mutating call runs a
// txn.FileTransaction through the commit loop of an underlying
// txnlog.FileHead; every read call updates the head first.
type Store struct {
	head *txnlog.FileHead
}

// NewStore wraps an existing FileHead as a FileReferenceStore.
func NewStore(head *txnlog.FileHead) *Store {
	return &Store{head: head}
}

// AddFiles installs brand-new files. Fails with txn.ErrFileAlreadyExists
// if any filename is already present anywhere in the store.
func (s *Store) AddFiles(ctx context.Context, files []*types.AllReferencesToAFile) error {
	return s.head.Add(ctx, txn.AddFiles{Files: files})
}

// AssignJobIDs binds job ids to currently-unassigned references.
// All-or-nothing across the batch.
func (s *Store) AssignJobIDs(ctx context.Context, requests []txn.AssignJobIDRequest) BatchResult {
	err := s.head.Add(ctx, txn.AssignJobIds{Requests: requests})
	return BatchResult{RequestCount: len(requests), Err: err}
}

// SplitFileReferences pushes references down one level. All-or-nothing
// across the batch; in this single-transaction implementation, a
// failure always rejects every request in the call (there is no
// partial-commit case to report).
func (s *Store) SplitFileReferences(ctx context.Context, requests []txn.SplitFileReferenceRequest) BatchResult {
	err := s.head.Add(ctx, txn.SplitFileReferences{Requests: requests})
	return BatchResult{RequestCount: len(requests), Err: err}
}

// ReplaceFileReferences is the compaction commit: every input reference
// in partitionID assigned to jobID is atomically removed and replaced
// by newReference.
func (s *Store) ReplaceFileReferences(ctx context.Context, jobID, partitionID string, inputFilenames []string, newReference *types.FileReference) error {
	return s.head.Add(ctx, txn.ReplaceFileReferences{
		JobID:          jobID,
		PartitionID:    partitionID,
		InputFilenames: inputFilenames,
		NewReference:   newReference,
	})
}

// DeleteGarbageCollectedFileReferenceCounts erases files whose backing
// objects GC has already removed. Each must have zero total references.
func (s *Store) DeleteGarbageCollectedFileReferenceCounts(ctx context.Context, filenames []string) error {
	return s.head.Add(ctx, txn.DeleteFiles{Filenames: filenames})
}

// Now reads the clock of the store's underlying head, the clock its
// commits take their updateTime from (spec.md §9: updateTime is injected
// via the head's clock, not read from the wall clock at arbitrary call
// sites). Each call reads the clock anew.
func (s *Store) Now() time.Time { return s.head.Now() }

// Empty reports whether the store currently holds no files at all. Used
// by partitionstore.Store.Initialise to enforce "file store must be
// empty" (spec.md §4.5).
func (s *Store) Empty(ctx context.Context) (bool, error) {
	if err := s.head.Update(ctx); err != nil {
		return false, err
	}
	return len(s.head.State().All()) == 0, nil
}

// GetFileReferences returns every internal reference across all files.
func (s *Store) GetFileReferences(ctx context.Context) ([]*types.FileReference, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State().AllReferences(), nil
}

// GetFileReferencesWithNoJobID returns the unassigned subset.
func (s *Store) GetFileReferencesWithNoJobID(ctx context.Context) ([]*types.FileReference, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State().ReferencesWithNoJobID(), nil
}

// GetPartitionToReferencedFilesMap groups referenced filenames by the
// partition they're referenced from.
func (s *Store) GetPartitionToReferencedFilesMap(ctx context.Context) (map[string][]string, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State().PartitionToReferencedFilesMap(), nil
}

// GetReadyForGCFilenamesBefore returns filenames with zero total
// references whose last update is strictly before maxUpdateTime.
func (s *Store) GetReadyForGCFilenamesBefore(ctx context.Context, maxUpdateTime time.Time) ([]string, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State().ReadyForGCBefore(maxUpdateTime), nil
}

// GetAllFilesWithMaxUnreferenced returns every referenced file plus up
// to maxUnreferenced unreferenced files, flagging whether more exist.
func (s *Store) GetAllFilesWithMaxUnreferenced(ctx context.Context, maxUnreferenced int) (statestore.Snapshot, error) {
	if err := s.head.Update(ctx); err != nil {
		return statestore.Snapshot{}, err
	}
	return s.head.State().AllFilesWithMaxUnreferenced(maxUnreferenced), nil
}
