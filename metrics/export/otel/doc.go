// Package otel provides OpenTelemetry metric exporter bindings for authcore
// counters and histograms.
//
// [New] registers an Int64ObservableCounter per authcore counter and, for
// each histogram, a cumulative bucket gauge keyed by a per-bound "le"
// attribute plus a total-count gauge. A single callback reads the [Source]
// snapshot on each collection cycle; *authcore.Core satisfies [Source].
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate core state.
package otel
