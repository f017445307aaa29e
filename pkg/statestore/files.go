package statestore

import (
	"time"

	"github.com/cuemby/sawtable/pkg/types"
)

// Files is the projection of every AddFiles/AssignJobIds/SplitFileReferences/
// ReplaceFileReferences/DeleteFiles/ClearFiles transaction applied so far,
// keyed by filename.
type Files struct {
	byFilename map[string]*types.AllReferencesToAFile
}

// NewFiles returns an empty projection.
func NewFiles() *Files {
	return &Files{byFilename: make(map[string]*types.AllReferencesToAFile)}
}

// Get returns the aggregate for filename, or nil if it does not exist.
func (f *Files) Get(filename string) *types.AllReferencesToAFile {
	return f.byFilename[filename]
}

// Has reports whether filename is present in the projection.
func (f *Files) Has(filename string) bool {
	_, ok := f.byFilename[filename]
	return ok
}

// Put inserts or overwrites the aggregate for filename.
func (f *Files) Put(file *types.AllReferencesToAFile) {
	f.byFilename[file.Filename] = file
}

// Delete removes filename from the projection.
func (f *Files) Delete(filename string) {
	delete(f.byFilename, filename)
}

// Clear empties the projection.
func (f *Files) Clear() {
	f.byFilename = make(map[string]*types.AllReferencesToAFile)
}

// All returns every file aggregate, in no particular order.
func (f *Files) All() []*types.AllReferencesToAFile {
	out := make([]*types.AllReferencesToAFile, 0, len(f.byFilename))
	for _, v := range f.byFilename {
		out = append(out, v)
	}
	return out
}

// AllReferences returns every internal FileReference across every file.
func (f *Files) AllReferences() []*types.FileReference {
	out := make([]*types.FileReference, 0, len(f.byFilename))
	for _, file := range f.byFilename {
		for _, ref := range file.InternalReferences {
			out = append(out, ref)
		}
	}
	return out
}

// ReferencesWithNoJobID returns every internal reference whose JobID is nil.
func (f *Files) ReferencesWithNoJobID() []*types.FileReference {
	out := make([]*types.FileReference, 0)
	for _, file := range f.byFilename {
		for _, ref := range file.InternalReferences {
			if !ref.Assigned() {
				out = append(out, ref)
			}
		}
	}
	return out
}

// PartitionToReferencedFilesMap groups every internal reference's
// filename by the partition it belongs to.
func (f *Files) PartitionToReferencedFilesMap() map[string][]string {
	out := make(map[string][]string)
	for _, file := range f.byFilename {
		for partitionID, ref := range file.InternalReferences {
			_ = ref
			out[partitionID] = append(out[partitionID], file.Filename)
		}
	}
	return out
}

// ReadyForGCBefore returns every filename with zero total references and
// LastUpdated strictly before maxUpdateTime.
func (f *Files) ReadyForGCBefore(maxUpdateTime time.Time) []string {
	out := make([]string, 0)
	for _, file := range f.byFilename {
		if file.ReadyForGC(maxUpdateTime) {
			out = append(out, file.Filename)
		}
	}
	return out
}

// Snapshot describes pkg/statestore.Files at a point in time: all
// referenced files plus up to maxUnreferenced unreferenced ones, with a
// flag recording whether more unreferenced files exist than were
// returned.
type Snapshot struct {
	Referenced      []*types.AllReferencesToAFile
	Unreferenced    []*types.AllReferencesToAFile
	MoreThanMax     bool
}

// AllFilesWithMaxUnreferenced builds a Snapshot capping the unreferenced
// list at maxUnreferenced entries.
func (f *Files) AllFilesWithMaxUnreferenced(maxUnreferenced int) Snapshot {
	snap := Snapshot{}
	unrefCount := 0
	for _, file := range f.byFilename {
		if file.Unreferenced() {
			unrefCount++
			if len(snap.Unreferenced) < maxUnreferenced {
				snap.Unreferenced = append(snap.Unreferenced, file)
			}
			continue
		}
		snap.Referenced = append(snap.Referenced, file)
	}
	snap.MoreThanMax = unrefCount > maxUnreferenced
	return snap
}
