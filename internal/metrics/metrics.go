// Package metrics exposes Prometheus instrumentation for the ranking pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	defaultMetrics *Metrics
	defaultOnce    sync.Once
)

// Request outcomes.
const (
	OutcomeOK                 = "ok"
	OutcomeEmpty              = "empty"
	OutcomeValidationError    = "validation_error"
	OutcomeConfigurationError = "configuration_error"
	OutcomeRetrievalError     = "retrieval_error"
)

// Metrics holds Prometheus metrics for the ranking pipeline.
//
// Metrics:
//   - talentrank_requests_total{outcome} - ranking requests by outcome
//   - talentrank_stage_method_total{stage,method} - method chosen per stage
//   - talentrank_stage_duration_seconds{stage} - time spent in each stage
//   - talentrank_pool_size - candidates produced by retrieval
//   - talentrank_ranked_results - candidates returned after reranking
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	StageMethod   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	PoolSize      prometheus.Histogram
	RankedResults prometheus.Histogram
}

// New registers the pipeline metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	sizeBuckets := []float64{0, 1, 5, 10, 12, 20, 30, 40, 50}

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentrank_requests_total",
				Help: "Total number of ranking requests by outcome",
			},
			[]string{"outcome"},
		),
		StageMethod: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "talentrank_stage_method_total",
				Help: "Total number of pipeline stage executions by method",
			},
			[]string{"stage", "method"}, // stage: "retrieve", "rerank"
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "talentrank_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"stage"},
		),
		PoolSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "talentrank_pool_size",
				Help:    "Number of candidates produced by retrieval",
				Buckets: sizeBuckets,
			},
		),
		RankedResults: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "talentrank_ranked_results",
				Help:    "Number of candidates returned after reranking",
				Buckets: sizeBuckets,
			},
		),
	}
}

// Default returns metrics registered once with the default registerer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// RecordRequest counts a finished ranking request.
func (m *Metrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage records which method a stage used and how long it took.
func (m *Metrics) RecordStage(stage, method string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageMethod.WithLabelValues(stage, method).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordPool records the retrieved pool size.
func (m *Metrics) RecordPool(n int) {
	if m == nil {
		return
	}
	m.PoolSize.Observe(float64(n))
}

// RecordRanked records the number of ranked results.
func (m *Metrics) RecordRanked(n int) {
	if m == nil {
		return
	}
	m.RankedResults.Observe(float64(n))
}
