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

	stepResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "bootstrap",
			Name:      "steps_total",
			Help:      "Bootstrap step outcomes by phase and status.",
		}, []string{"phase", "status"},
	)
	brokerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "stackup",
			Subsystem: "broker",
			Name:      "state",
			Help:      "Broker lifecycle state (1 = current state, 0 = others).",
		}, []string{"broker", "state"},
	)
	launches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "launcher",
			Name:      "launches_total",
			Help:      "Number of successful worker/monitor launches.",
		}, []string{"name"},
	)
	terminations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stackup",
			Subsystem: "launcher",
			Name:      "terminations_total",
			Help:      "Number of owned-process terminations.",
		}, []string{"name"},
	)
	processUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "stackup",
			Subsystem: "launcher",
			Name:      "process_up",
			Help:      "Whether the named launched process is currently detected alive.",
		}, []string{"name"},
	)
)

var knownBrokerStates = []string{"absent", "installed-stopped", "running"}

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{stepResults, brokerState, launches, terminations, processUp}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
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

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStep(phase string, ok bool) {
	if !regOK.Load() {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	stepResults.WithLabelValues(phase, status).Inc()
}

func SetBrokerState(broker, state string) {
	if !regOK.Load() {
		return
	}
	for _, s := range knownBrokerStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		brokerState.WithLabelValues(broker, s).Set(v)
	}
}

func IncLaunch(name string) {
	if regOK.Load() {
		launches.WithLabelValues(name).Inc()
	}
}

func IncTermination(name string) {
	if regOK.Load() {
		terminations.WithLabelValues(name).Inc()
	}
}

func SetProcessUp(name string, up bool) {
	if !regOK.Load() {
		return
	}
	v := 0.0
	if up {
		v = 1.0
	}
	processUp.WithLabelValues(name).Set(v)
}
