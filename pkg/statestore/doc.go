/*
Package statestore holds the two in-memory projections that the
transaction log is replayed into: Files (filename → AllReferencesToAFile)
and Partitions (id → Partition).

Neither type does its own locking. Each is owned exclusively by one
TransactionLogHead (pkg/txnlog), whose replay loop is the only writer;
concurrent access from multiple goroutines requires external
synchronization, same as the teacher's BoltDB-backed store requires
callers to serialize around db.Update.
*/
package statestore
