package content

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecordRendersAndFailures(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	f := newFixture(t, WithMetrics(m), WithMathRenderer(brokenMath{}))

	f.render(t, "$x$ and more", f.alice)
	if _, err := f.renderer.Render(context.Background(), "", f.contextFor(f.alice)); err == nil {
		t.Fatalf("expected empty content error")
	}

	if got := testutil.ToFloat64(m.renders.WithLabelValues("message", "ok")); got != 1 {
		t.Fatalf("expected 1 ok render, got %v", got)
	}
	if got := testutil.ToFloat64(m.renders.WithLabelValues("message", "error")); got != 1 {
		t.Fatalf("expected 1 failed render, got %v", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("math")); got != 1 {
		t.Fatalf("expected 1 math failure, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.enrichmentFailed("code")
	m.cacheLookup(true)
}
