// Package internaldefs holds the metric names and bucket boundaries shared by
// the exporter packages.
//
// Both the Prometheus and OTel exporters read these tables, so a rename here
// changes every exporter at once.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Open stores or connections of its own. Gauges read state only through
//     the caller's [StateSource].
package internaldefs
