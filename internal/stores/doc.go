// Package stores provides the credential collection adapter over the persisted
// key-value store.
//
// # Design
//
// All user records live in one JSON array under the "users" key. Every mutation
// reads the whole collection, changes it in memory and writes it back as one
// value. Without optimistic writes two concurrent writers race and the last one
// wins. With optimistic writes enabled and a [kv.CASStore] underneath, the write
// is a compare-and-swap against the value that was read, retried a bounded
// number of times.
//
// A collection that fails to decode is treated as empty and reported through
// the malformed hook; it is never surfaced as an error to callers.
//
// # Architecture boundaries
//
// This package owns persistence of user records. It does NOT hash passwords,
// classify strength, or count failed logins; those belong to internal/flows.
//
// # What this package must NOT do
//
//   - Import localauth or any sibling internal package.
//   - Log or expose password digests, salts or hints.
package stores
