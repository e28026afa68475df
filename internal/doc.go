// Package internal contains helper utilities that are intentionally private to localauth:
// hex-encoded random material and the epoch-millisecond codec used by persisted keys.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function flow orchestrators for every Engine operation
//   - rate: global failed-login counter over the kv store
//   - security: client-only trust limitations report
//   - stores: credential collection adapter over the kv store
//
// # What this package must NOT do
//
//   - Export types that appear in the public localauth API.
//   - Be imported by any package outside the localauth module.
package internal
