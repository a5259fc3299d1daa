package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	authcore "github.com/trinitylabs/authcore"
	"github.com/trinitylabs/authcore/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is the snapshot surface the exporter reads on every collection
// cycle. *authcore.Core satisfies it.
type Source interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

// histogramSeries exports one core histogram as a single cumulative bucket
// gauge carrying a per-bound "le" attribute, plus a total-count gauge.
type histogramSeries struct {
	id     authcore.MetricID
	bucket metric.Int64ObservableGauge
	count  metric.Int64ObservableGauge
}

// Exporter bridges Core's atomic metric snapshots into an OTel meter through
// one registered callback. It never owns the MeterProvider and never mutates
// the source.
type Exporter struct {
	source       Source
	registration metric.Registration
}

// New registers observable instruments for every core counter and histogram
// on the given meter. Close unregisters them.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*2+1)

	counters := make(map[authcore.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		counters[def.ID] = ins
		observables = append(observables, ins)
	}

	histograms := make([]histogramSeries, 0, len(internaldefs.HistogramDefs))
	for _, def := range internaldefs.HistogramDefs {
		bucket, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative bucket counts keyed by le."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name, err)
		}
		histograms = append(histograms, histogramSeries{id: def.ID, bucket: bucket, count: count})
		observables = append(observables, bucket, count)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"authcore_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, auditDropped)

	// One attribute set per upper bound, shared across collection cycles.
	bounds := make([]attribute.Set, len(internaldefs.HistogramBounds))
	for i, le := range internaldefs.HistogramBounds {
		bounds[i] = attribute.NewSet(attribute.String("le", le))
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := source.MetricsSnapshot()
		for id, ins := range counters {
			observer.ObserveInt64(ins, int64(snapshot.Counters[id]))
		}
		for _, h := range histograms {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
			for i, v := range cumulative {
				observer.ObserveInt64(h.bucket, int64(v), metric.WithAttributeSet(bounds[i]))
			}
			observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		}
		observer.ObserveInt64(auditDropped, int64(source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	return &Exporter{source: source, registration: registration}, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
