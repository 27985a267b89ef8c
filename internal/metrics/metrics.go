package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels optimizations that returned at least one slot.
	OutcomeSuccess = "success"
	// OutcomeEmpty labels optimizations that found no slot.
	OutcomeEmpty = "empty"
	// OutcomeInvalid labels requests rejected by validation.
	OutcomeInvalid = "invalid"
	// OutcomeError labels internal failures.
	OutcomeError = "error"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	optimizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_scheduler",
			Name:      "optimizations_total",
			Help:      "Total number of optimization requests handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	optimizationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_scheduler",
			Name:      "optimization_seconds",
			Help:      "Optimization latency in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	candidatesGenerated = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mirador_scheduler",
			Name:      "candidates",
			Help:      "Candidate slots generated per optimization before ranking.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mirador_scheduler",
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups, partitioned by result.",
		},
		[]string{"result"},
	)
)

// Register attaches mirador-scheduler collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		optimizationsTotal,
		optimizationDurationSeconds,
		candidatesGenerated,
		cacheLookupsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveOptimization records an optimization duration and outcome label.
func ObserveOptimization(duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeSuccess, OutcomeEmpty, OutcomeInvalid, OutcomeError:
	default:
		outcome = OutcomeError
	}
	optimizationsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	optimizationDurationSeconds.Observe(duration.Seconds())
}

// ObserveCandidates records how many positions the generator produced.
func ObserveCandidates(n int) {
	candidatesGenerated.Observe(float64(n))
}

// ObserveCacheLookup counts a result cache hit, miss or error.
func ObserveCacheLookup(result string) {
	cacheLookupsTotal.WithLabelValues(result).Inc()
}
