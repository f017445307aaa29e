// Package table wires a config.Table into a running set of stores: the
// TransactionLogStore named by its logBackend, the FileHead/PartitionHead
// pair over it, and the FileReferenceStore/PartitionStore facades built on
// top. This is the construction logic cmd/tablectl and any embedding
// application call once at startup, grounded on the teacher's
// manager.NewManager wiring of Raft plus storage.
package table
