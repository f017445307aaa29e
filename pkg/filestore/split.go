package filestore

import (
	"context"

	"github.com/cuemby/sawtable/pkg/statestore"
	"github.com/cuemby/sawtable/pkg/txn"
	"github.com/cuemby/sawtable/pkg/types"
)

// RunSplitCascade implements SplitFileReferences (C8): it pushes every
// unassigned reference sitting on a non-leaf partition down to that
// partition's two children, one level per call. It is not recursive —
// converging a deep tree to its leaves is an external scheduling
// concern across repeated calls (spec.md §4.6). Assigning a reference
// to a job blocks it from being split.
//
// partitions should reflect a recent PartitionHead.Update(); the caller
// owns fetching that snapshot.
func RunSplitCascade(ctx context.Context, fileStore *Store, partitions *statestore.Partitions) (BatchResult, error) {
	unassigned, err := fileStore.GetFileReferencesWithNoJobID(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	byPartition := make(map[string][]*types.FileReference)
	for _, ref := range unassigned {
		byPartition[ref.PartitionID] = append(byPartition[ref.PartitionID], ref)
	}

	now := fileStore.Now()
	var requests []txn.SplitFileReferenceRequest
	for _, p := range partitions.All() {
		if p.IsLeaf {
			continue
		}
		refs := byPartition[p.ID]
		if len(refs) == 0 {
			continue
		}
		for _, ref := range refs {
			children := make([]*types.FileReference, 0, len(p.ChildIDs))
			for _, childID := range p.ChildIDs {
				children = append(children, types.SplitFileReference(ref, childID, now))
			}
			requests = append(requests, txn.SplitFileReferenceRequest{
				Filename:        ref.Filename,
				FromPartitionID: p.ID,
				NewReferences:   children,
			})
		}
	}

	if len(requests) == 0 {
		return BatchResult{}, nil
	}

	result := fileStore.SplitFileReferences(ctx, requests)
	return result, result.Err
}
