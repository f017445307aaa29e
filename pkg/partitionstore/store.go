package partitionstore

import (
	"context"
	"fmt"

	"github.com/cuemby/sawtable/pkg/filestore"
	"github.com/cuemby/sawtable/pkg/statestore"
	"github.com/cuemby/sawtable/pkg/txn"
	"github.com/cuemby/sawtable/pkg/txnlog"
	"github.com/cuemby/sawtable/pkg/types"
)

// ErrFileStoreNotEmpty is returned by Initialise when the table's file
// store already holds files — installing a new tree over them would
// strand any reference whose partition id disappears.
var ErrFileStoreNotEmpty = fmt.Errorf("partitionstore: file store is not empty")

// Store is PartitionStore (C7).
type Store struct {
	head  *txnlog.PartitionHead
	files *filestore.Store
}

// NewStore wraps an existing PartitionHead as a PartitionStore. files is
// consulted by Initialise to enforce the empty-file-store precondition.
func NewStore(head *txnlog.PartitionHead, files *filestore.Store) *Store {
	return &Store{head: head, files: files}
}

// Initialise installs the initial partition tree. Rejected unless the
// file store is currently empty.
func (s *Store) Initialise(ctx context.Context, partitions []*types.Partition) error {
	empty, err := s.files.Empty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return ErrFileStoreNotEmpty
	}
	return s.head.Add(ctx, txn.InitialisePartitions{Partitions: partitions})
}

// AtomicallyUpdatePartitionAndCreateNewOnes performs the SplitPartition
// transaction: splitPartitionID becomes a non-leaf and its two fresh
// children are installed, as a single atomic step.
func (s *Store) AtomicallyUpdatePartitionAndCreateNewOnes(ctx context.Context, splitPartitionID string, left, right *types.Partition) error {
	return s.head.Add(ctx, txn.SplitPartition{
		SplitPartitionID: splitPartitionID,
		NewChild1:        left,
		NewChild2:        right,
	})
}

// State updates the cached projection and returns it directly, for
// callers (such as filestore.RunSplitCascade) that need the raw
// statestore.Partitions rather than a partition slice.
func (s *Store) State(ctx context.Context) (*statestore.Partitions, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State(), nil
}

// GetAllPartitions returns every partition.
func (s *Store) GetAllPartitions(ctx context.Context) ([]*types.Partition, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State().All(), nil
}

// GetLeafPartitions returns every leaf partition.
func (s *Store) GetLeafPartitions(ctx context.Context) ([]*types.Partition, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State().Leaves(), nil
}

// GetPartitionTree builds a navigable types.PartitionTree from the
// current projection.
func (s *Store) GetPartitionTree(ctx context.Context) (*types.PartitionTree, error) {
	if err := s.head.Update(ctx); err != nil {
		return nil, err
	}
	return s.head.State().Tree()
}

// FindLeafForKey updates the projection and returns the leaf partition
// owning key.
func (s *Store) FindLeafForKey(ctx context.Context, key types.Key) (*types.Partition, error) {
	tree, err := s.GetPartitionTree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.FindLeafForKey(key)
}
