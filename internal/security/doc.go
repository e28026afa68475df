// Package security builds the read-only security posture report.
//
// # Architecture boundaries
//
// The root package flattens its Config into a [ReportInput]; this package only
// derives values from it.
//
// # What this package must NOT do
//
//   - Change behavior based on the report.
//   - Import localauth or read the store.
package security
