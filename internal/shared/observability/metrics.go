package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyuml_parsing_seconds",
		Help:    "Time spent parsing a Python source file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyuml_files_skipped_total",
		Help: "Source files skipped during analysis, by reason.",
	}, []string{"reason"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyuml_analysis_seconds",
		Help:    "Time spent analyzing a source into a diagram model.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyuml_generation_seconds",
		Help:    "Time spent rendering and writing a diagram.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	DiagramsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyuml_diagrams_generated_total",
		Help: "Diagram generation attempts, by kind and status.",
	}, []string{"kind", "status"})

	SequenceMessages = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyuml_sequence_messages",
		Help:    "Messages emitted per sequence diagram.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyuml_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	ParseCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pyuml_parse_cache_entries",
		Help: "Parse trees held by the watch-mode parse cache.",
	})

	RegenerationsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyuml_regenerations_throttled_total",
		Help: "Watch-mode regenerations delayed by the rate limiter.",
	})
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
