package compaction

import (
	"testing"

	"github.com/cuemby/sawtable/pkg/types"
	"github.com/stretchr/testify/assert"
)

func leafPartition(id string) *types.Partition {
	return &types.Partition{ID: id, IsLeaf: true, SplitDimension: -1}
}

func ref(filename, partitionID string, records int64) *types.FileReference {
	return &types.FileReference{Filename: filename, PartitionID: partitionID, NumberOfRecords: records}
}

func TestGroupUnassignedByPartition(t *testing.T) {
	refs := []*types.FileReference{
		ref("a.parquet", "left", 10),
		ref("b.parquet", "left", 20),
		ref("c.parquet", "right", 5),
	}
	grouped := GroupUnassignedByPartition(refs)
	assert.Len(t, grouped["left"], 2)
	assert.Len(t, grouped["right"], 1)
}

func TestWholeFileStrategyFindCompactableSets(t *testing.T) {
	tests := []struct {
		name       string
		strategy   WholeFileStrategy
		refs       []*types.FileReference
		expectJobs int
	}{
		{
			name:       "below both thresholds produces no job",
			strategy:   WholeFileStrategy{MinFiles: 4, MinRecords: 1000},
			refs:       []*types.FileReference{ref("a.parquet", "leaf", 10)},
			expectJobs: 0,
		},
		{
			name:       "file count threshold crossed",
			strategy:   WholeFileStrategy{MinFiles: 2, MinRecords: 1000000},
			refs:       []*types.FileReference{ref("a.parquet", "leaf", 1), ref("b.parquet", "leaf", 1)},
			expectJobs: 1,
		},
		{
			name:       "record count threshold crossed",
			strategy:   WholeFileStrategy{MinFiles: 1000, MinRecords: 10},
			refs:       []*types.FileReference{ref("a.parquet", "leaf", 20)},
			expectJobs: 1,
		},
		{
			name:       "no references in leaf produces no job",
			strategy:   WholeFileStrategy{MinFiles: 1, MinRecords: 1},
			refs:       nil,
			expectJobs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaves := []*types.Partition{leafPartition("leaf")}
			grouped := GroupUnassignedByPartition(tt.refs)
			jobs := tt.strategy.FindCompactableSets(leaves, grouped)
			assert.Len(t, jobs, tt.expectJobs)
			if tt.expectJobs > 0 {
				assert.Equal(t, "leaf", jobs[0].PartitionID)
				assert.NotEmpty(t, jobs[0].ID)
				assert.NotEmpty(t, jobs[0].OutputFilename)
				assert.Equal(t, len(tt.refs), len(jobs[0].InputFilenames))
			}
		})
	}
}

func TestWholeFileStrategyOnlyConsidersLeafPartitions(t *testing.T) {
	strategy := WholeFileStrategy{MinFiles: 1, MinRecords: 1}
	leaves := []*types.Partition{leafPartition("leaf-a"), leafPartition("leaf-b")}
	grouped := GroupUnassignedByPartition([]*types.FileReference{
		ref("a.parquet", "leaf-a", 5),
		ref("b.parquet", "non-leaf-that-is-not-in-leaves", 5),
	})

	jobs := strategy.FindCompactableSets(leaves, grouped)
	assert.Len(t, jobs, 1)
	assert.Equal(t, "leaf-a", jobs[0].PartitionID)
}

func TestSplittingStrategyAlwaysEmpty(t *testing.T) {
	strategy := SplittingStrategy{}
	leaves := []*types.Partition{leafPartition("leaf")}
	grouped := GroupUnassignedByPartition([]*types.FileReference{ref("a.parquet", "leaf", 100)})

	jobs := strategy.FindCompactableSets(leaves, grouped)
	assert.Nil(t, jobs)
}
