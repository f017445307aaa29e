package txn

import "errors"

// Validation failures returned by Transaction.Validate. These are
// expected outcomes of well-formed but semantically invalid requests —
// callers must not blindly retry them, per spec §7.
var (
	ErrFileAlreadyExists             = errors.New("file already exists")
	ErrFileNotFound                  = errors.New("file not found")
	ErrFileReferenceNotFound         = errors.New("file reference not found")
	ErrFileReferenceAlreadyExists    = errors.New("file reference already exists")
	ErrFileReferenceAssignedToJob    = errors.New("file reference already assigned to a job")
	ErrFileReferenceNotAssignedToJob = errors.New("file reference not assigned to the given job")
	ErrNewReferenceSameAsOldReference = errors.New("new reference filename is the same as an input filename")
	ErrFileHasReferences             = errors.New("file still has references")

	ErrPartitionNotFound      = errors.New("partition not found")
	ErrPartitionAlreadyExists = errors.New("partition already exists")
	ErrPartitionNotLeaf       = errors.New("partition is not a leaf")
	ErrInvalidPartitionTree   = errors.New("partition set does not form a valid tree")
	ErrPartitionStoreNotEmpty = errors.New("partition store is not empty")
)
