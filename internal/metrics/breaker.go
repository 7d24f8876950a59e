// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker states as exported in the state label.
var breakerStates = [...]string{"closed", "half-open", "open"}

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pzpanel_breaker_state",
		Help: "Active breaker state per upstream (1 for the current state)",
	}, []string{"upstream", "state"})

	breakerTripsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_breaker_trips_total",
		Help: "Breaker transitions to open",
	}, []string{"upstream", "reason"}) // reason=threshold|probe_failed

	breakerRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pzpanel_breaker_rejected_total",
		Help: "Calls refused without reaching the upstream",
	}, []string{"upstream"})
)

// SetBreakerState marks state as the active one for upstream.
func SetBreakerState(upstream, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		breakerState.WithLabelValues(upstream, s).Set(v)
	}
}

// RecordBreakerTrip counts a transition to open.
func RecordBreakerTrip(upstream, reason string) {
	breakerTripsTotal.WithLabelValues(upstream, reason).Inc()
}

func RecordBreakerRejected(upstream string) {
	breakerRejectedTotal.WithLabelValues(upstream).Inc()
}
