package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/localauth"
	"github.com/MrEthical07/localauth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is what the exporter observes. [*localauth.Engine] satisfies it.
type Source interface {
	internaldefs.StateSource
	MetricsSnapshot() localauth.MetricsSnapshot
	AuditDelivered() uint64
	AuditDropped() uint64
}

type observedCounter struct {
	id         localauth.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      localauth.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

type observedState struct {
	kind       internaldefs.GaugeKind
	instrument metric.Int64ObservableGauge
}

// OTelExporter publishes engine metrics and live login state through
// observable instruments on a caller-supplied meter.
type OTelExporter struct {
	source         Source
	registration   metric.Registration
	counters       []observedCounter
	histograms     []observedHistogram
	states         []observedState
	auditDelivered metric.Int64ObservableCounter
	auditDropped   metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments for engine on meter.
func NewOTelExporter(meter metric.Meter, engine *localauth.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source Source) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative bucket count of "+def.Name+"."))
			if err != nil {
				return nil, fmt.Errorf("create bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Sample count of "+def.Name+"."))
		if err != nil {
			return nil, fmt.Errorf("create count gauge %s_count: %w", def.Name, err)
		}
		h.count = count
		observables = append(observables, count)
		e.histograms = append(e.histograms, h)
	}

	for _, def := range internaldefs.GaugeDefs {
		ins, err := meter.Int64ObservableGauge(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create state gauge %s: %w", def.Name, err)
		}
		e.states = append(e.states, observedState{kind: def.Kind, instrument: ins})
		observables = append(observables, ins)
	}

	var err error
	e.auditDelivered, err = meter.Int64ObservableCounter(internaldefs.AuditDeliveredName, metric.WithDescription("Audit events handed to the sink."))
	if err != nil {
		return nil, fmt.Errorf("create audit delivered counter: %w", err)
	}
	e.auditDropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription("Audit events dropped because the dispatcher buffer was full."))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.auditDelivered, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

// observe skips a state gauge whose read fails and keeps collecting the rest.
func (e *OTelExporter) observe(ctx context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i := range cumulative {
			o.ObserveInt64(h.buckets[i], int64(cumulative[i]))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	for _, s := range e.states {
		v, err := internaldefs.ReadGauge(ctx, e.source, s.kind)
		if err != nil {
			continue
		}
		o.ObserveInt64(s.instrument, v)
	}
	o.ObserveInt64(e.auditDelivered, int64(e.source.AuditDelivered()))
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
