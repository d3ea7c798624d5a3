// Package metrics defines the Prometheus collectors for the ingestion and
// retrieval pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline holds the pipeline-level metrics registered against one registry.
type Pipeline struct {
	DocumentsProcessed *prometheus.CounterVec
	DeadLettered       prometheus.Counter
	RefinerLatency     prometheus.Histogram
	AnswerRequests     *prometheus.CounterVec
}

// NewPipeline creates and registers the pipeline collectors.
func NewPipeline(reg prometheus.Registerer) (*Pipeline, error) {
	p := &Pipeline{
		DocumentsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingest_documents_total",
				Help: "Documents handled by the ingestion pipeline, by outcome.",
			},
			[]string{"outcome"},
		),
		DeadLettered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ingest_dead_letter_total",
				Help: "Notifications parked after exhausting retry attempts.",
			},
		),
		RefinerLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "refiner_latency_milliseconds",
				Help:    "Latency of markdown refinement model calls.",
				Buckets: prometheus.ExponentialBuckets(50, 2, 12),
			},
		),
		AnswerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "answer_requests_total",
				Help: "Answer requests, by grounding outcome.",
			},
			[]string{"grounded"},
		),
	}

	for _, c := range []prometheus.Collector{
		p.DocumentsProcessed,
		p.DeadLettered,
		p.RefinerLatency,
		p.AnswerRequests,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}
