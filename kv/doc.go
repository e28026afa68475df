// Package kv provides the persisted key-value capability that every localauth
// component reads and writes through.
//
// Values are strings keyed by fixed names (users, sessionToken, sessionExpiry,
// userData, failedAttempts, lastAttempt, theme). Each call is atomic on its own;
// there is no cross-call locking. Stores that can also offer per-key
// compare-and-swap implement [CASStore].
//
// # Implementations
//
//   - [MemoryStore]: process-local map, used by tests and embedding hosts.
//   - [RedisStore]: go-redis client with a key prefix; CAS runs as a Lua script.
//   - [SQLiteStore]: single kv table on modernc.org/sqlite, schema applied by goose.
//
// # What this package must NOT do
//
//   - Interpret stored values (JSON decoding belongs to the callers).
//   - Import localauth or any of its sub-packages.
package kv
