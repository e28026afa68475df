// Package rate implements the global failed-login counter that gates every
// login attempt.
//
// # Window semantics
//
// Two keys hold the state: failedAttempts (decimal count) and lastAttempt
// (epoch milliseconds). Login is blocked while the count is at or above the
// limit and less than the cooldown has passed since the last failure. Nothing
// clears the counter when the cooldown lapses; only a successful login does, so
// the next failure after a lapsed cooldown keeps counting from where it was.
//
// The counter is global: it is not keyed by identifier.
//
// # What this package must NOT do
//
//   - Decide whether a login attempt failed (callers report failures).
//   - Be imported outside the localauth module.
package rate
