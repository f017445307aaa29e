// Package objectstore provides the write-once object store interface
// data files are read from and written to: Store, implemented by
// LocalStore (a plain os-backed directory, used for single-node
// deployments and tests) and MinioStore (an S3-compatible backend over
// github.com/minio/minio-go/v7, used in production). Neither
// implementation is consulted by the state store itself — filenames are
// opaque keys to pkg/statestore and pkg/txn; objectstore only backs the
// actual bytes a compaction job reads and writes.
package objectstore
