package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	EvaluationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_evaluation_runs_total",
		Help: "Total evaluation runs by terminal status",
	}, []string{"status"})

	EvaluationRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "promptforge_evaluation_run_duration_seconds",
		Help:    "Wall-clock duration of an evaluation run",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	EntriesEvaluatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_entries_evaluated_total",
		Help: "Dataset entries evaluated, by outcome",
	}, []string{"outcome"})

	PromotionDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_promotion_decisions_total",
		Help: "Improvement runs by promotion decision",
	}, []string{"decision"})

	PromotionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptforge_promotion_conflicts_total",
		Help: "Active-version swaps aborted by a concurrent promotion",
	})

	CandidatesGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "promptforge_candidates_generated_total",
		Help: "Candidate prompt versions generated",
	})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_llm_requests_total",
		Help: "Total LLM requests",
	}, []string{"model", "purpose", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "promptforge_llm_request_duration_seconds",
		Help:    "LLM request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"model", "purpose"})

	JudgeCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "promptforge_judge_cache_requests_total",
		Help: "Judge cache lookups by result",
	}, []string{"result"})
)
