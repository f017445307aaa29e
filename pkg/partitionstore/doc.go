// Package partitionstore implements PartitionStore (C7): the public API
// over the Partitions transaction log, mirroring filestore's shape —
// mutating calls run a txn.PartitionTransaction through a
// txnlog.PartitionHead's commit loop, reads update the head first.
package partitionstore
