// Package metrics exposes Prometheus instrumentation for the quota ledger.
// All Recorder methods are safe on a nil receiver, so instrumentation stays
// strictly optional for callers that do not run a metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "throttle"

// Recorder holds the ledger's metric collectors.
type Recorder struct {
	reg       prometheus.Registerer
	decisions *prometheus.CounterVec
}

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		reg: reg,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Admission decisions by scope and outcome.",
		}, []string{"scope", "outcome"}),
	}
	reg.MustRegister(r.decisions)
	return r
}

// Decision records one admission outcome for a scope.
func (r *Recorder) Decision(scope string, allowed bool) {
	if r == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	r.decisions.WithLabelValues(scope, outcome).Inc()
}

// TrackCounterEntries registers a gauge reporting the number of live quota
// counters, read from fn at scrape time. Call at most once per Recorder.
func (r *Recorder) TrackCounterEntries(fn func() int) {
	if r == nil || fn == nil {
		return
	}
	r.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "counter_entries",
		Help:      "Number of quota counters currently held in storage.",
	}, func() float64 {
		return float64(fn())
	}))
}
