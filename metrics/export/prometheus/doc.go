// Package prometheus renders exitpass client metrics in the Prometheus text
// exposition format.
//
// [NewExporter] reads [exitpass.Client.MetricsSnapshot] on every scrape.
// Counters are named exitpass_*_total; the single histogram is
// exitpass_rpc_latency_seconds.
//
// # What this package must NOT do
//
//   - Register in a global registry. Callers mount [Exporter.Handler].
//   - Mutate client state.
package prometheus
