package txn

import (
	"fmt"
	"time"

	"github.com/cuemby/sawtable/pkg/statestore"
	"github.com/cuemby/sawtable/pkg/types"
)

// FileTransaction is one tagged variant of a mutation to the Files
// projection. Validate must be side-effect free; Apply must be
// deterministic and total once Validate has succeeded. updateTime is
// supplied by the TransactionLogHead during replay, never baked into
// the serialized form (spec §4.3).
type FileTransaction interface {
	TypeTag() string
	Validate(s *statestore.Files) error
	Apply(s *statestore.Files, updateTime time.Time)
}

// AddFiles installs brand-new files. Every filename must be absent from
// the projection — re-adding a file that already carries references
// anywhere in the tree is rejected (the strict position from spec §9's
// open question).
type AddFiles struct {
	Files []*types.AllReferencesToAFile
}

func (AddFiles) TypeTag() string { return "AddFiles" }

func (t AddFiles) Validate(s *statestore.Files) error {
	for _, f := range t.Files {
		if s.Has(f.Filename) {
			return fmt.Errorf("add file %q: %w", f.Filename, ErrFileAlreadyExists)
		}
	}
	return nil
}

func (t AddFiles) Apply(s *statestore.Files, updateTime time.Time) {
	for _, f := range t.Files {
		file := f.Clone()
		file.LastUpdated = updateTime
		for _, ref := range file.InternalReferences {
			ref.LastUpdated = updateTime
		}
		s.Put(file)
	}
}

// AssignJobIDRequest binds one job to a set of filenames already
// referenced in partitionID.
type AssignJobIDRequest struct {
	JobID       string
	PartitionID string
	Filenames   []string
}

// AssignJobIds assigns job ids to references that are currently
// unassigned. All-or-nothing: if any request in the batch fails
// validation, none of it applies.
type AssignJobIds struct {
	Requests []AssignJobIDRequest
}

func (AssignJobIds) TypeTag() string { return "AssignJobIds" }

func (t AssignJobIds) Validate(s *statestore.Files) error {
	for _, req := range t.Requests {
		for _, filename := range req.Filenames {
			file := s.Get(filename)
			if file == nil {
				return fmt.Errorf("assign job %q to %q/%q: %w", req.JobID, filename, req.PartitionID, ErrFileNotFound)
			}
			ref, ok := file.InternalReferences[req.PartitionID]
			if !ok {
				return fmt.Errorf("assign job %q to %q/%q: %w", req.JobID, filename, req.PartitionID, ErrFileReferenceNotFound)
			}
			if ref.Assigned() {
				return fmt.Errorf("assign job %q to %q/%q: %w", req.JobID, filename, req.PartitionID, ErrFileReferenceAssignedToJob)
			}
		}
	}
	return nil
}

func (t AssignJobIds) Apply(s *statestore.Files, updateTime time.Time) {
	for _, req := range t.Requests {
		jobID := req.JobID
		for _, filename := range req.Filenames {
			file := s.Get(filename)
			ref := file.InternalReferences[req.PartitionID]
			ref.JobID = &jobID
			ref.LastUpdated = updateTime
			file.LastUpdated = updateTime
		}
	}
}

// SplitFileReferenceRequest replaces the reference to filename in
// fromPartitionID with newReferences, one per child partition.
type SplitFileReferenceRequest struct {
	Filename        string
	FromPartitionID string
	NewReferences   []*types.FileReference
}

// SplitFileReferences pushes references down one level. All-or-nothing
// per call.
type SplitFileReferences struct {
	Requests []SplitFileReferenceRequest
}

func (SplitFileReferences) TypeTag() string { return "SplitFileReferences" }

func (t SplitFileReferences) Validate(s *statestore.Files) error {
	for _, req := range t.Requests {
		file := s.Get(req.Filename)
		if file == nil {
			return fmt.Errorf("split %q from %q: %w", req.Filename, req.FromPartitionID, ErrFileNotFound)
		}
		from, ok := file.InternalReferences[req.FromPartitionID]
		if !ok {
			return fmt.Errorf("split %q from %q: %w", req.Filename, req.FromPartitionID, ErrFileReferenceNotFound)
		}
		if from.Assigned() {
			return fmt.Errorf("split %q from %q: %w", req.Filename, req.FromPartitionID, ErrFileReferenceAssignedToJob)
		}
		for _, nr := range req.NewReferences {
			if _, exists := file.InternalReferences[nr.PartitionID]; exists {
				return fmt.Errorf("split %q into %q: %w", req.Filename, nr.PartitionID, ErrFileReferenceAlreadyExists)
			}
		}
	}
	return nil
}

func (t SplitFileReferences) Apply(s *statestore.Files, updateTime time.Time) {
	for _, req := range t.Requests {
		file := s.Get(req.Filename)
		delete(file.InternalReferences, req.FromPartitionID)
		for _, nr := range req.NewReferences {
			ref := nr.Clone()
			ref.LastUpdated = updateTime
			file.InternalReferences[ref.PartitionID] = ref
		}
		file.LastUpdated = updateTime
	}
}

// ReplaceFileReferences is the compaction commit: every input reference
// in partitionID assigned to jobID is atomically removed and replaced
// with a single new reference, which must name a fresh filename.
type ReplaceFileReferences struct {
	JobID          string
	PartitionID    string
	InputFilenames []string
	NewReference   *types.FileReference
}

func (ReplaceFileReferences) TypeTag() string { return "ReplaceFileReferences" }

func (t ReplaceFileReferences) Validate(s *statestore.Files) error {
	for _, filename := range t.InputFilenames {
		if filename == t.NewReference.Filename {
			return fmt.Errorf("replace references for job %q: %w", t.JobID, ErrNewReferenceSameAsOldReference)
		}
		file := s.Get(filename)
		if file == nil {
			return fmt.Errorf("replace references for job %q: input %q: %w", t.JobID, filename, ErrFileNotFound)
		}
		ref, ok := file.InternalReferences[t.PartitionID]
		if !ok {
			return fmt.Errorf("replace references for job %q: input %q: %w", t.JobID, filename, ErrFileReferenceNotFound)
		}
		if ref.JobID == nil || *ref.JobID != t.JobID {
			return fmt.Errorf("replace references for job %q: input %q: %w", t.JobID, filename, ErrFileReferenceNotAssignedToJob)
		}
	}
	if s.Has(t.NewReference.Filename) {
		return fmt.Errorf("replace references for job %q: output %q: %w", t.JobID, t.NewReference.Filename, ErrFileAlreadyExists)
	}
	return nil
}

func (t ReplaceFileReferences) Apply(s *statestore.Files, updateTime time.Time) {
	for _, filename := range t.InputFilenames {
		file := s.Get(filename)
		delete(file.InternalReferences, t.PartitionID)
		file.LastUpdated = updateTime
	}
	out := t.NewReference.Clone()
	out.LastUpdated = updateTime
	newFile, _ := types.NewAllReferencesToAFile(out.Filename, []*types.FileReference{out}, updateTime)
	s.Put(newFile)
}

// DeleteFiles permanently erases files that have reached zero total
// references. Typically issued after GC has physically removed the
// backing objects.
type DeleteFiles struct {
	Filenames []string
}

func (DeleteFiles) TypeTag() string { return "DeleteFiles" }

func (t DeleteFiles) Validate(s *statestore.Files) error {
	for _, filename := range t.Filenames {
		file := s.Get(filename)
		if file == nil {
			return fmt.Errorf("delete file %q: %w", filename, ErrFileNotFound)
		}
		if file.TotalReferenceCount() != 0 {
			return fmt.Errorf("delete file %q: %w", filename, ErrFileHasReferences)
		}
	}
	return nil
}

func (t DeleteFiles) Apply(s *statestore.Files, _ time.Time) {
	for _, filename := range t.Filenames {
		s.Delete(filename)
	}
}

// ClearFiles erases every file in the projection. Used by tests and by
// table teardown tooling.
type ClearFiles struct{}

func (ClearFiles) TypeTag() string { return "ClearFiles" }

func (ClearFiles) Validate(*statestore.Files) error { return nil }

func (ClearFiles) Apply(s *statestore.Files, _ time.Time) { s.Clear() }
