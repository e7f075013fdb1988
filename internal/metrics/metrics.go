package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_documents_enqueued_total",
		Help: "Total number of documents placed on the processing queue.",
	})

	DocumentsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_documents_processed_total",
		Help: "Total number of documents fully analyzed.",
	})

	DocumentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_documents_rejected_total",
		Help: "Total number of documents rejected due to a full queue.",
	})

	EventsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_events_built_total",
		Help: "Total number of events built from date blocks.",
	})

	BlocksSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_blocks_skipped_total",
		Help: "Total number of date blocks skipped for a missing date.",
	})

	EventsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_events_merged_total",
		Help: "Total number of duplicate events folded into another event.",
	})

	AnchorRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "disclosure_source_span_anchor_ratio",
		Help:    "Per-document share of events with an anchored source span.",
		Buckets: []float64{0.5, 0.7, 0.8, 0.9, 0.95, 0.99, 1},
	})

	QualityGateViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disclosure_quality_gate_violations_total",
		Help: "Documents whose anchor ratio fell below the configured threshold.",
	})

	QuestionMatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "disclosure_question_matches_total",
		Help: "Total number of question matches, labelled by question ID.",
	}, []string{"question_id"})

	DocumentProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "disclosure_document_processing_duration_ms",
		Help:    "End-to-end document analysis latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "disclosure_queue_utilization_ratio",
		Help: "Current document queue utilization (0–1).",
	})
)
