package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/localauth"
	"github.com/MrEthical07/localauth/metrics/export/internaldefs"
)

// Source is what the exporter scrapes. [*localauth.Engine] satisfies it.
type Source interface {
	internaldefs.StateSource
	MetricsSnapshot() localauth.MetricsSnapshot
	AuditDelivered() uint64
	AuditDropped() uint64
}

// PrometheusExporter renders engine counters, the hash latency histogram and
// the live login and session state in Prometheus text format.
type PrometheusExporter struct {
	source Source
}

// NewPrometheusExporter creates an exporter that reads from engine.
func NewPrometheusExporter(engine *localauth.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

func NewPrometheusExporterFromSource(source Source) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves the exposition, sampling state with the request context.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.RenderContext(r.Context())))
	})
}

// Render is RenderContext with a background context.
func (p *PrometheusExporter) Render() string {
	return p.RenderContext(context.Background())
}

// RenderContext returns the exposition text. A state gauge whose read fails
// is left out rather than reported as 0.
func (p *PrometheusExporter) RenderContext(ctx context.Context) string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.GaugeDefs {
		v, err := internaldefs.ReadGauge(ctx, p.source, def.Kind)
		if err != nil {
			continue
		}
		writeSample(&b, def.Name, def.Help, "gauge", strconv.FormatInt(v, 10))
	}

	// Counters stay out when metrics are disabled.
	if len(snapshot.Counters) > 0 || len(snapshot.Histograms) > 0 {
		for _, def := range internaldefs.CounterDefs {
			writeSample(&b, def.Name, def.Help, "counter", strconv.FormatUint(snapshot.Counters[def.ID], 10))
		}
		for _, def := range internaldefs.HistogramDefs {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
			writeHistogram(&b, def.Name, def.Help, cumulative)
		}
	}

	writeSample(&b, internaldefs.AuditDeliveredName, "Audit events handed to the sink.", "counter",
		strconv.FormatUint(p.source.AuditDelivered(), 10))
	writeSample(&b, internaldefs.AuditDroppedName, "Audit events dropped because the dispatcher buffer was full.", "counter",
		strconv.FormatUint(p.source.AuditDropped(), 10))

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteString("\n# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

func writeSample(b *strings.Builder, name, help, kind, value string) {
	writeHeader(b, name, help, kind)
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, cumulative [8]uint64) {
	writeHeader(b, name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString(`_bucket{le="`)
		b.WriteString(le)
		b.WriteString(`"} `)
		b.WriteString(strconv.FormatUint(cumulative[i], 10))
		b.WriteByte('\n')
	}
	b.WriteString(name)
	b.WriteString("_count ")
	b.WriteString(strconv.FormatUint(cumulative[len(cumulative)-1], 10))
	b.WriteByte('\n')
	// Snapshots carry no sum.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
