package txn

import (
	"fmt"
	"time"

	"github.com/cuemby/sawtable/pkg/statestore"
	"github.com/cuemby/sawtable/pkg/types"
)

// PartitionTransaction is one tagged variant of a mutation to the
// Partitions projection.
type PartitionTransaction interface {
	TypeTag() string
	Validate(s *statestore.Partitions) error
	Apply(s *statestore.Partitions, updateTime time.Time)
}

// InitialisePartitions installs the initial tree. Requires the
// projection to be empty and the supplied list to form a valid tree —
// PartitionStore additionally requires the file store to be empty
// before issuing this (enforced one layer up, since this package has no
// visibility into Files).
type InitialisePartitions struct {
	Partitions []*types.Partition
}

func (InitialisePartitions) TypeTag() string { return "InitialisePartitions" }

func (t InitialisePartitions) Validate(s *statestore.Partitions) error {
	if !s.IsEmpty() {
		return fmt.Errorf("initialise partitions: store already has partitions: %w", ErrPartitionAlreadyExists)
	}
	if _, err := types.NewPartitionTree(t.Partitions); err != nil {
		return fmt.Errorf("initialise partitions: %w: %v", ErrInvalidPartitionTree, err)
	}
	return nil
}

func (t InitialisePartitions) Apply(s *statestore.Partitions, updateTime time.Time) {
	for _, p := range t.Partitions {
		c := *p
		c.LastUpdated = updateTime
		s.Put(&c)
	}
}

// SplitPartition replaces one leaf with a non-leaf and its two fresh
// children, as a single atomic transaction (spec §4.3: partial states
// are unobservable).
type SplitPartition struct {
	SplitPartitionID string
	NewChild1        *types.Partition
	NewChild2        *types.Partition
}

func (SplitPartition) TypeTag() string { return "SplitPartition" }

func (t SplitPartition) Validate(s *statestore.Partitions) error {
	parent := s.Get(t.SplitPartitionID)
	if parent == nil {
		return fmt.Errorf("split partition %q: %w", t.SplitPartitionID, ErrPartitionNotFound)
	}
	if !parent.IsLeaf {
		return fmt.Errorf("split partition %q: %w", t.SplitPartitionID, ErrPartitionNotLeaf)
	}
	for _, child := range []*types.Partition{t.NewChild1, t.NewChild2} {
		if s.Has(child.ID) {
			return fmt.Errorf("split partition %q: new child %q: %w", t.SplitPartitionID, child.ID, ErrPartitionAlreadyExists)
		}
		if !child.IsLeaf {
			return fmt.Errorf("split partition %q: new child %q must be a leaf", t.SplitPartitionID, child.ID)
		}
		if child.ParentID != t.SplitPartitionID {
			return fmt.Errorf("split partition %q: new child %q has parent %q, want %q", t.SplitPartitionID, child.ID, child.ParentID, t.SplitPartitionID)
		}
	}
	if t.NewChild1.ID == t.NewChild2.ID {
		return fmt.Errorf("split partition %q: new children must have distinct ids", t.SplitPartitionID)
	}
	if _, err := types.SplitDimension(parent.Region, t.NewChild1.Region, t.NewChild2.Region); err != nil {
		return fmt.Errorf("split partition %q: regions do not disjointly cover the parent: %w", t.SplitPartitionID, err)
	}
	return nil
}

func (t SplitPartition) Apply(s *statestore.Partitions, updateTime time.Time) {
	parent := s.Get(t.SplitPartitionID)
	dimension, _ := types.SplitDimension(parent.Region, t.NewChild1.Region, t.NewChild2.Region)
	updated := &types.Partition{
		ID:             parent.ID,
		Region:         parent.Region,
		ParentID:       parent.ParentID,
		ChildIDs:       []string{t.NewChild1.ID, t.NewChild2.ID},
		IsLeaf:         false,
		SplitDimension: dimension,
		LastUpdated:    updateTime,
	}
	s.Put(updated)

	for _, child := range []*types.Partition{t.NewChild1, t.NewChild2} {
		c := *child
		c.LastUpdated = updateTime
		s.Put(&c)
	}
}

// ClearPartitions erases the entire tree.
type ClearPartitions struct{}

func (ClearPartitions) TypeTag() string { return "ClearPartitions" }

func (ClearPartitions) Validate(*statestore.Partitions) error { return nil }

func (ClearPartitions) Apply(s *statestore.Partitions, _ time.Time) { s.Clear() }
