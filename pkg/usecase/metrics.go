package usecase

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	ingestDocumentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docqa_ingest_documents_total",
			Help: "Total number of documents processed by ingestion",
		},
	)
	ingestVectorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docqa_ingest_vectors_total",
			Help: "Total number of vectors upserted by ingestion",
		},
	)
	upsertBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docqa_upsert_batches_total",
			Help: "Total number of upsert batches sent to the vector index",
		},
	)
	answersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_answers_total",
			Help: "Total number of answer requests by result",
		},
		[]string{"result"},
	)
	upstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_upstream_errors_total",
			Help: "Total number of failed upstream calls by capability",
		},
		[]string{"capability"},
	)
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docqa_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(
		ingestDocumentsTotal,
		ingestVectorsTotal,
		upsertBatchesTotal,
		answersTotal,
		upstreamErrorsTotal,
		stageDuration,
	)
}

func observeStage(stage Capability, started time.Time) {
	stageDuration.WithLabelValues(string(stage)).Observe(time.Since(started).Seconds())
}

func countUpstreamError(capability Capability) {
	upstreamErrorsTotal.WithLabelValues(string(capability)).Inc()
}
