// Package store provides the TTL-bound key/value store backing all job
// state, task mappings, reports, and progress snapshots.
//
// The store offers single-key atomic operations only: Put, Get, Delete,
// Scan over a key prefix, CompareAndSet for race-free transitions, and
// Touch to refresh a key's deadline on re-submission. There are no
// multi-key transactions; cross-record invariants are maintained by the
// callers' write ordering.
//
// Expiry is purely time based. Reads treat a past deadline as absence and
// a periodic sweep purges dead rows; a key's lifetime is never extended by
// read access. The database lives alongside the logs and is transient
// working state, not an archive.
package store
