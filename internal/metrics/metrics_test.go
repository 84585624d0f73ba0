package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestHelperRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}

	IncStep("deps", true)
	IncStep("deps", true)
	IncStep("brokers", false)
	if got := testutil.ToFloat64(stepResults.WithLabelValues("deps", "ok")); got != 2 {
		t.Fatalf("deps ok = %v", got)
	}
	if got := testutil.ToFloat64(stepResults.WithLabelValues("brokers", "failed")); got != 1 {
		t.Fatalf("brokers failed = %v", got)
	}

	SetBrokerState("redis", "running")
	if got := testutil.ToFloat64(brokerState.WithLabelValues("redis", "running")); got != 1 {
		t.Fatalf("running gauge = %v", got)
	}
	if got := testutil.ToFloat64(brokerState.WithLabelValues("redis", "absent")); got != 0 {
		t.Fatalf("absent gauge = %v", got)
	}

	IncLaunch("worker")
	IncTermination("worker")
	SetProcessUp("worker", true)
	if got := testutil.ToFloat64(launches.WithLabelValues("worker")); got != 1 {
		t.Fatalf("launches = %v", got)
	}
	if got := testutil.ToFloat64(processUp.WithLabelValues("worker")); got != 1 {
		t.Fatalf("process_up = %v", got)
	}
}
