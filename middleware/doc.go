// Package middleware adapts the localauth access gate and form handlers to
// net/http.
//
// # Pieces
//
//   - [Guard] runs Engine.CheckAccess for a page and turns redirects into 303s.
//   - [Navigator] and [WithNavigation] capture where a form handler navigated.
//   - [RequestForm] exposes a posted form as a [localauth.FormReader].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every decision is
// delegated to the Engine.
//
// # What this package must NOT do
//
//   - Read or write the key-value store directly.
//   - Decide access beyond what Engine.CheckAccess returns.
package middleware
