// Copyright 2024 The HydroCore Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package route

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes optional step-timing and convergence gauges for operators
// running long simulations, the way a long-lived service exposes Prometheus
// gauges/counters for its own steady-state operations rather than only
// emitting them at the end of a run. A nil *Metrics is valid everywhere it
// is accepted; every method on it is then a no-op, so callers that don't
// register a Prometheus registry pay nothing for this instrumentation.
type Metrics struct {
	stepDuration      prometheus.Histogram
	nonConvergedSteps prometheus.Counter
	continuityError   prometheus.Gauge
}

// NewMetrics constructs and registers the routing gauges/counters/histogram
// against reg. Pass prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to expose them on the default /metrics
// handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hydrocore",
			Subsystem: "route",
			Name:      "step_duration_seconds",
			Help:      "Wall-clock duration of one routing-driver step.",
			Buckets:   prometheus.DefBuckets,
		}),
		nonConvergedSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hydrocore",
			Subsystem: "route",
			Name:      "non_converged_steps_total",
			Help:      "Count of dynamic-wave steps where a node failed to converge (§7 Convergence).",
		}),
		continuityError: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hydrocore",
			Subsystem: "route",
			Name:      "continuity_error_ratio",
			Help:      "Most recently observed global mass-balance continuity error (Testable Property 1).",
		}),
	}
	reg.MustRegister(m.stepDuration, m.nonConvergedSteps, m.continuityError)
	return m
}

// ObserveStep records how long one routing step took.
func (m *Metrics) ObserveStep(d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.Observe(d.Seconds())
}

// IncNonConverged increments the non-converging-step counter (§3 Routing
// state's non-converging-step count).
func (m *Metrics) IncNonConverged() {
	if m == nil {
		return
	}
	m.nonConvergedSteps.Inc()
}

// SetContinuityError records the latest continuity-error ratio.
func (m *Metrics) SetContinuityError(e float64) {
	if m == nil {
		return
	}
	m.continuityError.Set(e)
}
