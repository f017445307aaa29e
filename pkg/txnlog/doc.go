// Package txnlog implements the transaction log backend (C4) and the
// optimistic commit loop that replays it into an in-memory projection
// (C5).
//
// A TransactionLogStore exposes exactly the two operations spec.md §6
// requires of any backend: conditional insert at a (logName, number) key,
// and an ordered range-scan above a number. Two implementations are
// provided — BoltLogStore for single-process embedded use, and
// RaftLogStore for multi-node deployments that need the log itself
// replicated. Both honor the same contract, so TransactionLogHead is
// written once against the interface.
package txnlog
