// Package filestore implements FileReferenceStore (C6): the public,
// end-user-facing API over the Files transaction log. Every mutating
// call builds a txn.FileTransaction and runs it through a
// txnlog.FileHead's commit loop; every read call updates the head first
// and then answers from its cached projection.
package filestore
