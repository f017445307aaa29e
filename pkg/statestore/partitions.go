package statestore

import (
	"github.com/cuemby/sawtable/pkg/types"
)

// Partitions is the projection of every InitialisePartitions/SplitPartition/
// ClearPartitions transaction applied so far, keyed by partition id.
type Partitions struct {
	byID map[string]*types.Partition
}

// NewPartitions returns an empty projection.
func NewPartitions() *Partitions {
	return &Partitions{byID: make(map[string]*types.Partition)}
}

// Get returns the partition with the given id, or nil if absent.
func (p *Partitions) Get(id string) *types.Partition {
	return p.byID[id]
}

// Has reports whether id is present.
func (p *Partitions) Has(id string) bool {
	_, ok := p.byID[id]
	return ok
}

// Put inserts or overwrites the partition.
func (p *Partitions) Put(partition *types.Partition) {
	p.byID[partition.ID] = partition
}

// Clear empties the projection.
func (p *Partitions) Clear() {
	p.byID = make(map[string]*types.Partition)
}

// IsEmpty reports whether no partitions have been installed yet.
func (p *Partitions) IsEmpty() bool {
	return len(p.byID) == 0
}

// All returns every partition, in no particular order.
func (p *Partitions) All() []*types.Partition {
	out := make([]*types.Partition, 0, len(p.byID))
	for _, v := range p.byID {
		out = append(out, v)
	}
	return out
}

// Leaves returns every leaf partition, in no particular order.
func (p *Partitions) Leaves() []*types.Partition {
	out := make([]*types.Partition, 0, len(p.byID))
	for _, v := range p.byID {
		if v.IsLeaf {
			out = append(out, v)
		}
	}
	return out
}

// Tree builds a navigable types.PartitionTree from the current
// projection. Cheap enough to call per read since partition counts stay
// small relative to file counts; callers that need repeated lookups in
// one pass should build this once and reuse it.
func (p *Partitions) Tree() (*types.PartitionTree, error) {
	return types.NewPartitionTree(p.All())
}
