package prometheus

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MrEthical07/exitpass"
	"github.com/MrEthical07/exitpass/metrics/export/internaldefs"
)

// MetricsSource is what the exporter reads. *exitpass.Client satisfies it.
type MetricsSource interface {
	MetricsSnapshot() exitpass.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter renders client metrics in the Prometheus text exposition format.
type Exporter struct {
	source MetricsSource
}

// NewExporter returns an exporter reading from client.
func NewExporter(client *exitpass.Client) *Exporter {
	return &Exporter{source: client}
}

// NewExporterFromSource returns an exporter reading from source.
func NewExporterFromSource(source MetricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current values on every request.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = p.Encode(w)
	})
}

// Render returns the current values as a string. It is empty while metrics
// are disabled and no audit event was dropped.
func (p *Exporter) Render() string {
	var b strings.Builder
	_ = p.Encode(&b)
	return b.String()
}

// Encode writes the current values to w and returns the first write error.
func (p *Exporter) Encode(w io.Writer) error {
	if p == nil || p.source == nil {
		return nil
	}
	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return nil
	}

	ew := &errWriter{w: w}
	for _, def := range internaldefs.CounterDefs {
		ew.counter(def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		if raw, ok := snapshot.Histograms[def.ID]; ok {
			ew.histogram(def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)))
		}
	}
	ew.counter("exitpass_audit_dropped_total", "Audit events dropped because the dispatcher buffer was full.", dropped)
	return ew.err
}

// errWriter stops writing after the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) header(name, help, kind string) {
	e.printf("# HELP %s %s\n# TYPE %s %s\n", name, helpEscaper.Replace(help), name, kind)
}

func (e *errWriter) counter(name, help string, value uint64) {
	e.header(name, help, "counter")
	e.printf("%s %d\n", name, value)
}

// histogram writes cumulative buckets and the count. The sum is always 0
// because snapshots keep bucket counts only.
func (e *errWriter) histogram(name, help string, cumulative [8]uint64) {
	e.header(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		e.printf("%s_bucket{le=%q} %d\n", name, le, cumulative[i])
	}
	e.printf("%s_count %d\n%s_sum 0\n", name, cumulative[len(cumulative)-1], name)
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
