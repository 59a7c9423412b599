package exitpass

import (
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/exitpass/rpc"
	"github.com/MrEthical07/exitpass/session"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricRPCLatency, time.Second)
	if m.Value(MetricLogout) != 0 || m.Enabled() || m.LatencyEnabled() {
		t.Fatal("expected nil metrics to record nothing")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 2000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricRPCSuccess)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricRPCSuccess); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		20 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		400 * time.Millisecond,
		time.Second,
		2 * time.Second,
		5 * time.Second,
		30 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricRPCLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricRPCLatency]
	if len(buckets) != latencyBucketCount {
		t.Fatalf("expected %d buckets, got %d", latencyBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("expected no histogram for a counter id")
	}
	if snap.Counters[MetricLoginSuccess] != 0 {
		t.Fatal("expected Observe to leave counters alone")
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricAccessDenied)
	m.Inc(MetricAccessDenied)
	m.Observe(MetricRPCLatency, 2*time.Millisecond)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected MetricLoginSuccess=1 got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricAccessDenied] != 2 {
		t.Fatalf("expected MetricAccessDenied=2 got %d", snap.Counters[MetricAccessDenied])
	}
	if _, ok := snap.Histograms[MetricRPCLatency]; ok {
		t.Fatal("expected no histogram when latency is disabled")
	}
	if _, ok := snap.Counters[MetricRPCLatency]; ok {
		t.Fatal("expected latency id to be absent from counters")
	}
}

func TestRecordCallByOutcome(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.RecordCall(rpc.CallInfo{Outcome: rpc.OutcomeSuccess, Duration: 30 * time.Millisecond})
	m.RecordCall(rpc.CallInfo{Outcome: rpc.OutcomeRemoteFailure, Duration: 120 * time.Millisecond})
	m.RecordCall(rpc.CallInfo{Outcome: rpc.OutcomeTransportFailure, Duration: 6 * time.Second})

	for _, id := range []MetricID{MetricRPCSuccess, MetricRPCRemoteFailure, MetricRPCTransportFailure} {
		if got := m.Value(id); got != 1 {
			t.Fatalf("metric %d: expected 1, got %d", id, got)
		}
	}
	buckets := m.Snapshot().Histograms[MetricRPCLatency]
	if buckets[0] != 1 || buckets[2] != 1 || buckets[latencyBucketCount-1] != 1 {
		t.Fatalf("unexpected latency buckets %v", buckets)
	}
}

func TestRecordSessionEvent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.RecordSessionEvent(session.Event{Kind: session.EventExpired})
	m.RecordSessionEvent(session.Event{Kind: session.EventCorrupt})
	m.RecordSessionEvent(session.Event{Kind: session.EventUnauthenticated})
	m.RecordSessionEvent(session.Event{Kind: session.EventDenied})
	m.RecordSessionEvent(session.Event{Kind: session.EventSaved})
	m.RecordSessionEvent(session.Event{Kind: session.EventCleared})

	snap := m.Snapshot()
	for _, id := range []MetricID{MetricSessionExpired, MetricSessionCorrupt, MetricAccessUnauthenticated, MetricAccessDenied} {
		if snap.Counters[id] != 1 {
			t.Fatalf("metric %d: expected 1, got %d", id, snap.Counters[id])
		}
	}
	if snap.Counters[MetricLoginSuccess] != 0 || snap.Counters[MetricLogout] != 0 {
		t.Fatal("expected saves and clears to leave login counters alone")
	}
}
