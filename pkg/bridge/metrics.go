package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/treebridge/pkg/reconcile"
)

// Update results recorded by Metrics.
const (
	resultApplied = "applied"
	resultSkipped = "skipped"
	resultNotYet  = "not_yet"
)

// Metrics holds the Prometheus metrics for one or more bridges. A nil
// *Metrics records nothing.
type Metrics struct {
	updates  *prometheus.CounterVec
	duration prometheus.Histogram
	frames   prometheus.Counter
	events   prometheus.Counter
	ops      *prometheus.CounterVec
}

// NewMetrics creates bridge metrics registered with reg. A nil reg creates
// unregistered metrics.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "updates_total",
			Help:      "Root trees delivered by the producer, by gate result",
		}, []string{"result"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "reconcile_duration_seconds",
			Help:      "Time to reconcile and render one accepted root tree",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),

		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "frames_requested_total",
			Help:      "Frame requests sent to the producer",
		}),

		events: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "events_sent_total",
			Help:      "Events forwarded to the producer",
		}),

		ops: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "ops_total",
			Help:      "Reconciler operations, by kind",
		}, []string{"op"}),
	}
}

// Observe implements reconcile.Observer.
func (m *Metrics) Observe(op reconcile.Op) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(op.String()).Inc()
}

func (m *Metrics) update(result string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(result).Inc()
}

func (m *Metrics) reconciled(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

func (m *Metrics) frameRequested() {
	if m == nil {
		return
	}
	m.frames.Inc()
}

func (m *Metrics) eventSent() {
	if m == nil {
		return
	}
	m.events.Inc()
}
