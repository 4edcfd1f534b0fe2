// Package metrics exports admission engine activity to Prometheus.
package metrics

import (
	"time"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "admission"

// Recorder implements admission.Observer on top of a Prometheus registry.
type Recorder struct {
	outcomes *prometheus.CounterVec
	faults   *prometheus.CounterVec
	lockWait prometheus.Histogram
	active   *prometheus.GaugeVec
}

// New registers the admission metrics with reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Decided requests by operation, status and rejection reason.",
		}, []string{"op", "status", "reason"}),
		faults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Collaborator and consistency faults.",
		}, []string{"kind"}),
		lockWait: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting to enter an event's exclusive section.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 10), // 50µs to ~13s
		}),
		active: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_registrations",
			Help:      "Active registrations per event.",
		}, []string{"event_id"}),
	}
}

func (r *Recorder) Outcome(op string, o model.Outcome) {
	r.outcomes.WithLabelValues(op, string(o.Status), string(o.Reason)).Inc()
}

func (r *Recorder) Fault(kind string) {
	r.faults.WithLabelValues(kind).Inc()
}

func (r *Recorder) LockWait(d time.Duration) {
	r.lockWait.Observe(d.Seconds())
}

func (r *Recorder) Active(eventID string, n int) {
	r.active.WithLabelValues(eventID).Set(float64(n))
}

// Forget drops the gauge series of a deleted event.
func (r *Recorder) Forget(eventID string) {
	r.active.DeleteLabelValues(eventID)
}
