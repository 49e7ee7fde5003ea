package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/roach88/tracefold/internal/pipeline")

var (
	// termsEvaluated counts terms produced by direct evaluation
	termsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracefold_terms_evaluated_total",
		Help: "Total terms produced by direct evaluation",
	})

	// chunksEvaluated counts chunks by evaluation path
	chunksEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracefold_chunks_evaluated_total",
		Help: "Total chunks evaluated by path",
	}, []string{"path"})

	// mergePasses counts batched merges over concatenated results
	mergePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracefold_merge_passes_total",
		Help: "Total batched merge passes over combined chunk results",
	})

	// stageDuration tracks evaluation latency by entry point
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracefold_stage_duration_seconds",
		Help:    "Evaluation duration in seconds by entry point",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4.4min
	}, []string{"stage"})

	// failures counts failed evaluations by error code
	failures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracefold_failures_total",
		Help: "Total failed evaluations by error code",
	}, []string{"code"})
)
