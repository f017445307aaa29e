// Package compaction implements CompactionJobFactory and
// FindCompactableSets (C9): given a leaf partition's unassigned
// references, decide which sets are ready to merge into one output
// file. The factory only proposes jobs — binding references to a job id
// (filestore.Store.AssignJobIDs) and committing the merged output
// (filestore.Store.ReplaceFileReferences) are the caller's
// responsibility, per spec.md §4.7.
package compaction
