// Package observe provides observability primitives for ArionVoicer:
// OpenTelemetry metrics, structured logging, and HTTP middleware that ties
// them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/ramiroarionkoder/ArionVoicer-Skillet"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// RecognitionDuration tracks the wall time of one capture session, from
	// device open to final hypothesis.
	RecognitionDuration metric.Float64Histogram

	// SynthesisDuration tracks cloud speech synthesis latency.
	SynthesisDuration metric.Float64Histogram

	// --- Counters ---

	// Recognitions counts completed capture sessions. Use with attributes:
	//   attribute.String("language", ...), attribute.String("status", ...)
	Recognitions metric.Int64Counter

	// SynthesisRequests counts synthesis calls. Use with attributes:
	//   attribute.String("language", ...), attribute.String("status", ...)
	SynthesisRequests metric.Int64Counter

	// GrammarAppends counts vocabulary additions by language.
	GrammarAppends metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live capture sessions (0 or 1 with
	// an exclusive device, but recorded as a gauge regardless).
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds). Capture
// sessions run for whole seconds while synthesis returns in fractions of
// one, so the range is wide.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.RecognitionDuration, err = m.Float64Histogram("arionvoicer.recognition.duration",
		metric.WithDescription("Wall time of one capture session."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SynthesisDuration, err = m.Float64Histogram("arionvoicer.synthesis.duration",
		metric.WithDescription("Latency of cloud speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.Recognitions, err = m.Int64Counter("arionvoicer.recognitions",
		metric.WithDescription("Completed capture sessions by language and status."),
	); err != nil {
		return nil, err
	}
	if met.SynthesisRequests, err = m.Int64Counter("arionvoicer.synthesis.requests",
		metric.WithDescription("Synthesis requests by language and status."),
	); err != nil {
		return nil, err
	}
	if met.GrammarAppends, err = m.Int64Counter("arionvoicer.grammar.appends",
		metric.WithDescription("Vocabulary additions by language."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("arionvoicer.active_sessions",
		metric.WithDescription("Number of live capture sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("arionvoicer.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordRecognition records one completed capture session with its wall
// time and outcome.
func (m *Metrics) RecordRecognition(ctx context.Context, language, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("status", status),
	)
	m.Recognitions.Add(ctx, 1, attrs)
	m.RecognitionDuration.Record(ctx, seconds, attrs)
}

// RecordSynthesis records one synthesis request with its latency and
// outcome.
func (m *Metrics) RecordSynthesis(ctx context.Context, language, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("status", status),
	)
	m.SynthesisRequests.Add(ctx, 1, attrs)
	m.SynthesisDuration.Record(ctx, seconds, attrs)
}

// RecordGrammarAppend records one vocabulary addition.
func (m *Metrics) RecordGrammarAppend(ctx context.Context, language string) {
	m.GrammarAppends.Add(ctx, 1,
		metric.WithAttributes(attribute.String("language", language)),
	)
}
