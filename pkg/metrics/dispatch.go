package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded for auto-assign attempts.
const (
	AutoAssignMatched  = "matched"
	AutoAssignNoDriver = "no_driver"
	AutoAssignConflict = "conflict"
	AutoAssignError    = "error"
)

// DispatchMetrics records delivery assignment lifecycle counters.
type DispatchMetrics struct {
	created       prometheus.Counter
	autoAssign    *prometheus.CounterVec
	matchDuration prometheus.Histogram
	confirmations *prometheus.CounterVec
	active        prometheus.Gauge
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_assignments_created",
		Help: "Delivery assignments created.",
	})
	autoAssign := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_auto_assign_attempts",
		Help: "Auto assign attempts by outcome.",
	}, []string{"outcome"})
	matchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_match_duration_seconds",
		Help:    "Time spent matching a driver to an assignment.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_confirmations",
		Help: "Pickup and delivery confirmations by stage.",
	}, []string{"stage"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_active_assignments",
		Help: "Assignments currently assigned or picked up.",
	})
	reg.MustRegister(created, autoAssign, matchDuration, confirmations, active)
	return &DispatchMetrics{
		created:       created,
		autoAssign:    autoAssign,
		matchDuration: matchDuration,
		confirmations: confirmations,
		active:        active,
	}
}

// IncCreated increments the created assignments counter.
func (d *DispatchMetrics) IncCreated() {
	if d == nil || d.created == nil {
		return
	}
	d.created.Inc()
}

// ObserveAutoAssign records one auto-assign attempt and its duration.
func (d *DispatchMetrics) ObserveAutoAssign(outcome string, duration time.Duration) {
	if d == nil || d.autoAssign == nil {
		return
	}
	d.autoAssign.WithLabelValues(normalizeLabel(outcome)).Inc()
	d.matchDuration.Observe(duration.Seconds())
}

// IncConfirmation increments the confirmation counter for a stage.
func (d *DispatchMetrics) IncConfirmation(stage string) {
	if d == nil || d.confirmations == nil {
		return
	}
	d.confirmations.WithLabelValues(normalizeLabel(stage)).Inc()
}

// SetActiveAssignments updates the in-flight assignment gauge.
func (d *DispatchMetrics) SetActiveAssignments(count float64) {
	if d == nil || d.active == nil {
		return
	}
	d.active.Set(count)
}
