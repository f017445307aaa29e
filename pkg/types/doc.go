/*
Package types defines the core data model of the table state store: file
references, the aggregate view of a file across partitions, and the
partition tree that carves up the row-key space.

# Architecture

The types package has no dependency on the transaction log, the state
store projections, or any storage backend — it is pure value types plus
the invariants every other package must preserve:

  - FileReference: a claim that one immutable file contributes records
    to a single partition.
  - AllReferencesToAFile: every live reference to one file, aggregated
    by filename.
  - Partition: a node in the binary key-space tree.
  - PartitionTree: a read-only view over a set of Partitions, indexed by
    id and by key.

Partitions and files are linked by string ids looked up through maps,
never by following Go pointers across the tree — ids are the only
identity that survives a round trip through the transaction log.

# Construction

Builders are avoided in favor of small constructor functions per creation
mode, matching the narrow set of ways a reference or partition actually
comes into being:

	types.WholeFileReference(filename, partitionID, records, now)
	types.SplitFileReference(parent, childPartitionID, now)
	types.RootPartition(id, region, now)
	types.SplitLeaf(parent, dimension, leftID, rightID, leftRegion, rightRegion, now)

# Thread Safety

Values in this package are plain structs with no internal locking.
Callers own synchronization; the state store projections (pkg/statestore)
are the only place mutation happens, and they are owned exclusively by
one TransactionLogHead at a time.
*/
package types
