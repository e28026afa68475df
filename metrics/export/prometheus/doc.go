// Package prometheus renders localauth metrics in Prometheus text format.
//
// [NewPrometheusExporter] reads [localauth.Engine.MetricsSnapshot] on each
// scrape. Counters are named localauth_*_total; the single histogram is
// localauth_hash_latency_seconds. Two gauges, localauth_login_blocked and
// localauth_session_active, sample the failed-attempt gate and the stored
// session with the scrape request's context.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
