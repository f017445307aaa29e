package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrAlreadyExists is returned by Put when an object already exists at
// the given key. Data files are immutable once written — a filename is
// never overwritten, only superseded by a new filename after
// compaction — so every Put is write-once.
var ErrAlreadyExists = errors.New("objectstore: object already exists")

// ErrNotFound names the absent-object case. Neither LocalStore nor
// MinioStore returns it: Delete of an absent key succeeds and Exists
// reports false.
var ErrNotFound = errors.New("objectstore: object not found")

// Store is the object store a table's data files live in. Filenames
// passed to Put/Delete/Exists are the same opaque strings that appear
// as types.FileReference.Filename and types.AllReferencesToAFile.Filename
// — objectstore never inspects or parses them.
type Store interface {
	// Put writes the full contents of r under key. Fails with
	// ErrAlreadyExists if key is already present.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Delete removes the object at key. Deleting an absent key is not
	// an error — garbage collection may race with a retry of its own
	// prior attempt.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key currently names an object.
	Exists(ctx context.Context, key string) (bool, error)
}
