package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farepath",
			Name:      "pipeline_queries_total",
			Help:      "Total pipeline invocations by outcome",
		},
		[]string{"outcome"}, // "ok" / "error"
	)

	NormalizeFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farepath",
			Name:      "normalize_fallbacks_total",
			Help:      "Structured requests built by the local fallback instead of the model",
		},
	)

	MockOffersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farepath",
			Name:      "mock_offers_total",
			Help:      "Offer searches answered with mock data due to booking-service failure",
		},
	)

	OffersSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "farepath",
			Name:      "offers_skipped_total",
			Help:      "Provider offers skipped because a required field was missing",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineQueriesTotal)
	prometheus.MustRegister(NormalizeFallbacksTotal)
	prometheus.MustRegister(MockOffersTotal)
	prometheus.MustRegister(OffersSkippedTotal)
	pipelineMetricsRegistered = true
}
