// Package session issues, inspects and ends the single client-side session and
// drives the inactivity auto-logout timer.
//
// # Persisted shape
//
// A session is three keys in the kv store:
//
//	sessionToken   64 lowercase hex chars (32 random bytes)
//	sessionExpiry  epoch milliseconds, decimal
//	userData       JSON {"username": ..., "email": ...}
//
// A new login overwrites all three. Nothing deletes them at expiry; an expired
// session is simply reported as not logged in.
//
// # Trust model
//
// The token is a local presence flag. It is not signed and nothing verifies it
// against an issuer, so anyone able to write the store can forge a session.
//
// # Timers
//
// Each page owns a [Context] holding at most one pending inactivity callback.
// Rescheduling bumps a generation counter so a callback that was already
// running when it was replaced does nothing.
//
// # What this package must NOT do
//
//   - Import localauth, internal/flows or internal/stores (no upward imports).
//   - Navigate; the logout hook owns navigation.
//   - Log tokens.
package session
