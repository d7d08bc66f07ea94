package compute

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for computation execution.
//
// Metrics exposed (all namespaced "workflows"):
//
//   - executions_total (counter): completed Engine.Run invocations,
//     labelled by result_state.
//   - execution_seconds (histogram): wall-clock duration of a single
//     invocation, labelled by result_state.
//   - unhandled_failures_total (counter): invocations whose result state is
//     UNHANDLED_FAILURE, whether the engine converted an escaped failure or
//     the computation returned that result itself.
//   - external_inputs_total (counter): external input resolutions requested
//     through the executor.
//
// Attach to an engine with WithMetrics; nil disables collection. Expose via
// promhttp against the registry the metrics were created with.
type Metrics struct {
	executions        *prometheus.CounterVec
	executionSeconds  *prometheus.HistogramVec
	unhandledFailures prometheus.Counter
	externalInputs    prometheus.Counter
}

// NewMetrics creates and registers the engine metrics with the provided
// registry. A nil registry uses the default registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		executions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflows",
			Name:      "executions_total",
			Help:      "Completed computation invocations by result state.",
		}, []string{"result_state"}),
		executionSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workflows",
			Name:      "execution_seconds",
			Help:      "Wall-clock duration of a single computation invocation.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"result_state"}),
		unhandledFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workflows",
			Name:      "unhandled_failures_total",
			Help:      "Computation invocations that ended in UNHANDLED_FAILURE.",
		}),
		externalInputs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workflows",
			Name:      "external_inputs_total",
			Help:      "External input resolutions requested through the executor.",
		}),
	}
}

func (m *Metrics) observeExecution(resultState ResultState, elapsed time.Duration) {
	state := resultState.String()
	m.executions.WithLabelValues(state).Inc()
	m.executionSeconds.WithLabelValues(state).Observe(elapsed.Seconds())
	if resultState == ResultUnhandledFailure {
		m.unhandledFailures.Inc()
	}
}

func (m *Metrics) observeExternalInput() {
	m.externalInputs.Inc()
}
