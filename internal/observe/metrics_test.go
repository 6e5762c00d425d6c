package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordRecognition(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRecognition(ctx, "es-ES", "ok", 2.5)
	m.RecordRecognition(ctx, "es-ES", "error", 0.1)

	rm := collect(t, reader)

	counter := findMetric(rm, "arionvoicer.recognitions")
	if counter == nil {
		t.Fatal("recognitions counter not found")
	}
	sum, ok := counter.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("unexpected counter data type %T", counter.Data)
	}
	if len(sum.DataPoints) != 2 {
		t.Fatalf("expected 2 attribute sets, got %d", len(sum.DataPoints))
	}

	hist := findMetric(rm, "arionvoicer.recognition.duration")
	if hist == nil {
		t.Fatal("recognition duration histogram not found")
	}
	hd, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("unexpected histogram data type %T", hist.Data)
	}
	var total uint64
	for _, dp := range hd.DataPoints {
		total += dp.Count
	}
	if total != 2 {
		t.Errorf("histogram recorded %d observations, want 2", total)
	}
}

func TestRecordSynthesis_AttributesSeparateSeries(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSynthesis(ctx, "pt-BR", "ok", 0.4)
	m.RecordSynthesis(ctx, "pt-BR", "ok", 0.5)
	m.RecordSynthesis(ctx, "pt-BR", "error", 0.1)

	rm := collect(t, reader)
	counter := findMetric(rm, "arionvoicer.synthesis.requests")
	if counter == nil {
		t.Fatal("synthesis requests counter not found")
	}
	sum := counter.Data.(metricdata.Sum[int64])

	okAttr := attribute.NewSet(
		attribute.String("language", "pt-BR"),
		attribute.String("status", "ok"),
	)
	var found bool
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&okAttr) {
			found = true
			if dp.Value != 2 {
				t.Errorf("ok series = %d, want 2", dp.Value)
			}
		}
	}
	if !found {
		t.Error("no data point for language=pt-BR status=ok")
	}
}

func TestActiveSessionsGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)
	m.ActiveSessions.Add(ctx, 1)

	rm := collect(t, reader)
	g := findMetric(rm, "arionvoicer.active_sessions")
	if g == nil {
		t.Fatal("active sessions gauge not found")
	}
	sum := g.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("active sessions = %v, want single data point of 1", sum.DataPoints)
	}
}

func TestRecordGrammarAppend(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordGrammarAppend(context.Background(), "it-IT")

	rm := collect(t, reader)
	c := findMetric(rm, "arionvoicer.grammar.appends")
	if c == nil {
		t.Fatal("grammar appends counter not found")
	}
	sum := c.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
		t.Errorf("grammar appends = %v, want single data point of 1", sum.DataPoints)
	}
}
