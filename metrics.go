package exitpass

import (
	"sync/atomic"
	"time"

	"github.com/MrEthical07/exitpass/rpc"
	"github.com/MrEthical07/exitpass/session"
)

// MetricID identifies one counter or histogram tracked by [Metrics].
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that produced a saved session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins rejected remotely or not persisted.
	MetricLoginFailure
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricSessionExpired counts sessions discarded on read after the timeout.
	MetricSessionExpired
	// MetricSessionCorrupt counts stored records that failed to decode.
	MetricSessionCorrupt
	// MetricAccessUnauthenticated counts gated views opened without a session.
	MetricAccessUnauthenticated
	// MetricAccessDenied counts gated views refused for the session's role.
	MetricAccessDenied
	// MetricRPCSuccess counts calls answered with success true.
	MetricRPCSuccess
	// MetricRPCRemoteFailure counts well-formed replies with success false.
	MetricRPCRemoteFailure
	// MetricRPCTransportFailure counts calls the gateway itself failed.
	MetricRPCTransportFailure
	// MetricRPCLatency is the round-trip latency histogram.
	MetricRPCLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of the round-trip histogram.
// Anything slower lands in the final overflow bucket.
var latencyBounds = [...]time.Duration{
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
	time.Second,
	2500 * time.Millisecond,
	5 * time.Second,
}

const latencyBucketCount = len(latencyBounds) + 1

// counter sits alone on a cache line; the gateway and the session reader
// update different counters from different goroutines.
type counter struct {
	atomic.Uint64
	_ [56]byte
}

// Metrics holds lock-free counters for a [Client]. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]counter
	latency       [latencyBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all metric values.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount || id == MetricRPCLatency {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d in the latency histogram. Ids other than
// [MetricRPCLatency] are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if !m.LatencyEnabled() || id != MetricRPCLatency {
		return
	}
	m.latency[latencyBucket(d)].Add(1)
}

// RecordCall counts one gateway call by outcome and records its latency.
func (m *Metrics) RecordCall(info rpc.CallInfo) {
	switch info.Outcome {
	case rpc.OutcomeSuccess:
		m.Inc(MetricRPCSuccess)
	case rpc.OutcomeRemoteFailure:
		m.Inc(MetricRPCRemoteFailure)
	case rpc.OutcomeTransportFailure:
		m.Inc(MetricRPCTransportFailure)
	}
	m.Observe(MetricRPCLatency, info.Duration)
}

var sessionEventMetrics = map[session.EventKind]MetricID{
	session.EventExpired:         MetricSessionExpired,
	session.EventCorrupt:         MetricSessionCorrupt,
	session.EventUnauthenticated: MetricAccessUnauthenticated,
	session.EventDenied:          MetricAccessDenied,
}

// RecordSessionEvent counts session events that have a metric. Saves and
// clears are counted by the login and logout paths instead.
func (m *Metrics) RecordSessionEvent(ev session.Event) {
	if id, ok := sessionEventMetrics[ev.Kind]; ok {
		m.Inc(id)
	}
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot copies every counter, plus the latency buckets when enabled.
// A disabled Metrics yields empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := range metricIDCount {
		if id != MetricRPCLatency {
			s.Counters[id] = m.counters[id].Load()
		}
	}
	if m.enableLatency {
		buckets := make([]uint64, latencyBucketCount)
		for i := range buckets {
			buckets[i] = m.latency[i].Load()
		}
		s.Histograms[MetricRPCLatency] = buckets
	}
	return s
}

func latencyBucket(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
