package compaction

import (
	"fmt"

	"github.com/cuemby/sawtable/pkg/types"
	"github.com/google/uuid"
)

// Job is a CompactionJob: a proposed merge of InputFilenames (all
// unassigned references in PartitionID) into one OutputFilename. The
// factory writes no state — dispatching a Job is the caller's job: bind
// it with AssignJobIDs, merge the inputs externally, then commit with
// ReplaceFileReferences.
type Job struct {
	ID             string
	PartitionID    string
	InputFilenames []string
	OutputFilename string
}

// JobFactory selects which unassigned references in a leaf partition are
// ready to compact.
type JobFactory interface {
	FindCompactableSets(leaves []*types.Partition, unassignedByPartition map[string][]*types.FileReference) []Job
}

// GroupUnassignedByPartition buckets unassigned references by the
// partition they belong to, the shape FindCompactableSets expects.
func GroupUnassignedByPartition(unassigned []*types.FileReference) map[string][]*types.FileReference {
	out := make(map[string][]*types.FileReference)
	for _, ref := range unassigned {
		out[ref.PartitionID] = append(out[ref.PartitionID], ref)
	}
	return out
}

// WholeFileStrategy is the minimum viable strategy of spec.md §4.7:
// compact every unassigned reference in a leaf once either the
// reference count or their combined record count crosses a threshold.
// There is no on-disk byte size tracked by FileReference, so
// MinRecords stands in for compaction_min_bytes — record count is the
// only size proxy the state store carries (see DESIGN.md).
type WholeFileStrategy struct {
	MinFiles   int
	MinRecords int64
}

// FindCompactableSets implements JobFactory.
func (s WholeFileStrategy) FindCompactableSets(leaves []*types.Partition, unassignedByPartition map[string][]*types.FileReference) []Job {
	var jobs []Job
	for _, p := range leaves {
		refs := unassignedByPartition[p.ID]
		if len(refs) == 0 {
			continue
		}

		var totalRecords int64
		filenames := make([]string, 0, len(refs))
		for _, ref := range refs {
			filenames = append(filenames, ref.Filename)
			totalRecords += ref.NumberOfRecords
		}

		if len(refs) < s.MinFiles && totalRecords < s.MinRecords {
			continue
		}

		id := uuid.NewString()
		jobs = append(jobs, Job{
			ID:             id,
			PartitionID:    p.ID,
			InputFilenames: filenames,
			OutputFilename: fmt.Sprintf("%s/compacted-%s.parquet", p.ID, id),
		})
	}
	return jobs
}

// SplittingStrategy is the "splitting" variant spec.md §4.7 alludes to —
// emitting child-partition assignments when the parent is ready to
// split. Deprecated: superseded by the standalone SplitFileReferences
// cascade (pkg/filestore.RunSplitCascade), which already pushes
// references down ahead of compaction, so there is nothing left for a
// splitting-aware job factory to do. Kept for interface completeness
// per spec.md §9; always returns no jobs.
type SplittingStrategy struct{}

// FindCompactableSets implements JobFactory.
func (SplittingStrategy) FindCompactableSets([]*types.Partition, map[string][]*types.FileReference) []Job {
	return nil
}
