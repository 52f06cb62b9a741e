package bridge

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/treebridge/pkg/reconcile"
	"github.com/vango-dev/treebridge/pkg/tree"
	tb "github.com/vango-dev/treebridge/pkg/treebuild"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(prometheus.NewRegistry(), "test")
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func histogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Observe(reconcile.OpRender)
	m.update(resultApplied)
	m.reconciled(time.Millisecond)
	m.frameRequested()
	m.eventSent()
}

func TestMetricsRegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "tb")
	m.update(resultApplied)
	m.Observe(reconcile.OpConstruct)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"tb_bridge_updates_total", "tb_reconcile_ops_total"} {
		if !names[want] {
			t.Errorf("metric %s not registered; have %v", want, names)
		}
	}
}

func TestBridgeRecordsMetrics(t *testing.T) {
	fp := &frameProducer{
		pushProducer: newPushProducer(),
		replies:      []tree.Tree{tb.El("ul", tb.Key("a", tb.El("li", "a")))},
	}
	sched := newManualScheduler()
	m := newTestMetrics(t)
	h := start(t, fp, &testHost{}, WithMode(ModeFrameSync), WithScheduler(sched), WithMetrics(m))
	waitFor(t, fp.subscribed, "subscribe")
	waitFor(t, sched.scheduled, "first tick")

	sched.fire(t)
	h.next(t)
	waitFor(t, sched.scheduled, "second tick")

	// Same tree again, skipped by the gate; then "not yet".
	fp.push(tb.El("ul", tb.Key("a", tb.El("li", "a"))))
	fp.push(nil)
	fp.push(tree.Leaf("done"))
	h.next(t)
	if err := h.stop(t); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	tests := []struct {
		name string
		c    prometheus.Counter
		want float64
	}{
		{"applied", m.updates.WithLabelValues(resultApplied), 2},
		{"skipped", m.updates.WithLabelValues(resultSkipped), 1},
		{"not yet", m.updates.WithLabelValues(resultNotYet), 1},
		{"frames", m.frames, 1},
		{"construct ops", m.ops.WithLabelValues("construct"), 2},
		{"render ops", m.ops.WithLabelValues("render"), 2},
		{"destroy ops", m.ops.WithLabelValues("destroy"), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counterValue(t, tt.c); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
	if got := histogramCount(t, m.duration); got != 2 {
		t.Errorf("reconcile duration samples = %d, want 2", got)
	}
}
