package internaldefs

import (
	"github.com/MrEthical07/exitpass"
)

// CounterDef names one counter for exporters.
type CounterDef struct {
	ID   exitpass.MetricID
	Name string
	Help string
}

// HistogramDef names one histogram for exporters.
type HistogramDef struct {
	ID   exitpass.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in output order.
var CounterDefs = []CounterDef{
	{ID: exitpass.MetricLoginSuccess, Name: "exitpass_login_success_total", Help: "Logins that produced a saved session."},
	{ID: exitpass.MetricLoginFailure, Name: "exitpass_login_failure_total", Help: "Logins rejected by the backend or not persisted."},
	{ID: exitpass.MetricLogout, Name: "exitpass_logout_total", Help: "Explicit logouts."},
	{ID: exitpass.MetricSessionExpired, Name: "exitpass_session_expired_total", Help: "Sessions discarded after the inactivity timeout."},
	{ID: exitpass.MetricSessionCorrupt, Name: "exitpass_session_corrupt_total", Help: "Stored session records that failed to decode."},
	{ID: exitpass.MetricAccessUnauthenticated, Name: "exitpass_access_unauthenticated_total", Help: "Gated views opened without a session."},
	{ID: exitpass.MetricAccessDenied, Name: "exitpass_access_denied_total", Help: "Gated views refused for the session role."},
	{ID: exitpass.MetricRPCSuccess, Name: "exitpass_rpc_success_total", Help: "Backend calls answered with success."},
	{ID: exitpass.MetricRPCRemoteFailure, Name: "exitpass_rpc_remote_failure_total", Help: "Backend calls answered with success false."},
	{ID: exitpass.MetricRPCTransportFailure, Name: "exitpass_rpc_transport_failure_total", Help: "Backend calls that failed before a usable reply."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: exitpass.MetricRPCLatency, Name: "exitpass_rpc_latency_seconds", Help: "Backend round-trip latency."},
}

// HistogramBounds are the upper bounds of the latency buckets, in seconds.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix are HistogramBounds spelled for instrument names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing
// buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
