package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	probes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portald",
			Subsystem: "watch",
			Name:      "probes_total",
			Help:      "Number of lighthouse probes by result.",
		}, []string{"result"},
	)
	suspends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portald",
			Subsystem: "watch",
			Name:      "suspends_total",
			Help:      "Number of suspend invocations by result.",
		}, []string{"result"},
	)
	pauseSkips = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portald",
			Subsystem: "watch",
			Name:      "pause_skips_total",
			Help:      "Number of cycles skipped because a pause window was active.",
		},
	)
	graceEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portald",
			Subsystem: "watch",
			Name:      "grace_entries_total",
			Help:      "Number of times a first probe failure entered the grace wait.",
		},
	)
	currentPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "portald",
			Subsystem: "watch",
			Name:      "current_phase",
			Help:      "Current monitoring phase (1 = active phase, 0 = inactive).",
		}, []string{"phase"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{probes, suspends, pauseSkips, graceEntries, currentPhase}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// RegisterDefault registers with the default Prometheus registry.
func RegisterDefault() error { return Register(prometheus.DefaultRegisterer) }

// Handler returns an http.Handler serving metrics for the DefaultGatherer.
// The caller wires it into a server.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by the supervisor to record events.
// They no-op if Register hasn't been called.

func IncProbe(reachable bool) {
	if regOK.Load() {
		probes.WithLabelValues(boolResult(reachable)).Inc()
	}
}

func IncSuspend(ok bool) {
	if regOK.Load() {
		if ok {
			suspends.WithLabelValues("ok").Inc()
		} else {
			suspends.WithLabelValues("error").Inc()
		}
	}
}

func IncPauseSkip() {
	if regOK.Load() {
		pauseSkips.Inc()
	}
}

func IncGraceEntry() {
	if regOK.Load() {
		graceEntries.Inc()
	}
}

func SetPhase(phase string, active bool) {
	if regOK.Load() {
		var v float64
		if active {
			v = 1
		}
		currentPhase.WithLabelValues(phase).Set(v)
	}
}

func boolResult(ok bool) string {
	if ok {
		return "up"
	}
	return "down"
}
