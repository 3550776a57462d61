package metrics

import (
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UnitsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chunkmill",
		Name:      "units_dispatched_total",
		Help:      "Work units handed to worker slots, by task kind.",
	}, []string{"kind"})
	ChunksTokenized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkmill",
		Name:      "chunks_tokenized_total",
		Help:      "Text chunks tokenized by workers.",
	})
	WordsCounted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkmill",
		Name:      "words_counted_total",
		Help:      "Words counted by workers.",
	})
	RunsSorted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkmill",
		Name:      "runs_sorted_total",
		Help:      "Runs sorted by workers.",
	})
	RunsMerged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkmill",
		Name:      "runs_merged_total",
		Help:      "Run pairs merged by workers.",
	})
	DuplicateResults = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chunkmill",
		Name:      "duplicate_results_total",
		Help:      "Results dropped because their chunk was already folded.",
	})
	RoundSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chunkmill",
		Name:      "round_seconds",
		Help:      "Time from dispatching a round to receiving its last reply.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	})
)

var initOnce sync.Once

// Init registers collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(UnitsDispatched, ChunksTokenized, WordsCounted, RunsSorted, RunsMerged, DuplicateResults, RoundSeconds)
	})
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Blocks; run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

// AddrFromEnv returns the listen address from METRICS_ADDR, or "" when metrics are off.
func AddrFromEnv() string {
	return os.Getenv("METRICS_ADDR")
}
