// Package localauth is a client-resident authentication module over a
// persisted key-value store: registration, salted password digests, a global
// failed-login gate, time-bounded sessions with an inactivity logout, and a
// two-phase hint-based password reset.
//
// There is no server. The store is readable and writable by whoever holds it,
// so the session token is a local trust flag only; [Engine.Limitations] lists
// what that implies.
//
// # Architecture boundaries
//
// localauth is the public surface. It exposes [Engine], [Builder], [Config],
// the form handlers and the access gate. Flow orchestration, the credential
// collection, the failed-attempt counter and audit dispatch live under
// internal/. Persistence backends live in kv, sessions in session, digests in
// password and time in clock.
//
// # What this package must NOT do
//
//   - Render pages or read DOM state; it consumes a [FormReader] and drives a [Navigator].
//   - Log or audit passwords, hints, salts, digests or session tokens.
//   - Strengthen the trust model silently (signing tokens, server checks).
package localauth
