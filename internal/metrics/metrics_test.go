package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register should tolerate duplicates: %v", err)
	}
}

func TestObserveOptimizationNormalisesOutcome(t *testing.T) {
	before := counterValue(t, OutcomeError)
	ObserveOptimization(-time.Second, "weird")
	if got := counterValue(t, OutcomeError); got != before+1 {
		t.Fatalf("expected unknown outcome counted as error, got %v -> %v", before, got)
	}
}

func counterValue(t *testing.T, outcome string) float64 {
	t.Helper()
	var m dto.Metric
	if err := optimizationsTotal.WithLabelValues(outcome).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}
