// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunVerifyReset, RunResetPassword)
// accepts a typed dependency struct and returns results without side-effects
// beyond those dependencies. This keeps the Engine thin and lets the ordering
// rules be tested with plain function fakes.
//
// # Ordering rules
//
//   - Login never counts a failure for malformed input or for crypto errors,
//     and always counts one for an unknown identifier or a digest mismatch.
//   - Login issues the session before clearing the failure counter.
//   - Registration checks username uniqueness before deriving the digest.
//   - Reset phase one answers identically for an unknown email and a wrong hint.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential store, hasher, rate limiter,
// session manager, audit dispatcher and metrics. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import localauth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency functions.
package flows
