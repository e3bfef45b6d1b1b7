// Package mailbox implements the per-recipient notification ledger.
//
// Anyone may deposit a record into any identity's collection. Only a caller
// holding the identity's viewing key may read it back. A deposit to an
// identity that has no collection yet creates the collection and appends the
// record in the same invocation.
//
// The service performs no commits of its own: the host runs one operation per
// invocation and keeps or discards all of its writes together. Operations
// validate and encode their input before the first write.
package mailbox
