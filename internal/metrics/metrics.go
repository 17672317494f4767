package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup result labels.
const (
	ResultDirect  = "direct"
	ResultWalk    = "walk"
	ResultMissing = "missing"
)

// Recorder holds the collectors for one run.
type Recorder struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	lookupErrors   prometheus.Counter
	statRetries    prometheus.Counter
	lookupDuration prometheus.Histogram
	batchWorkers   prometheus.Gauge
	runRecords     *prometheus.GaugeVec
	runDuration    prometheus.Gauge
	runTimestamp   prometheus.Gauge
}

// New creates a Recorder backed by a fresh registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relocator_lookups_total",
				Help: "Filename lookups by result",
			},
			[]string{"result"},
		),
		lookupErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relocator_lookup_errors_total",
			Help: "Traversal errors recovered as not found",
		}),
		statRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relocator_stat_retries_total",
			Help: "Stat calls retried after a stale file handle",
		}),
		lookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relocator_lookup_duration_seconds",
			Help:    "Per-filename lookup duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
		batchWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relocator_batch_workers",
			Help: "Worker pool size used by the last batch",
		}),
		runRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relocator_run_records",
				Help: "Catalog records by outcome kind for the last run",
			},
			[]string{"kind"},
		),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relocator_run_duration_seconds",
			Help: "Wall time of the last run in seconds",
		}),
		runTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "relocator_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
	r.registry.MustRegister(
		r.lookups,
		r.lookupErrors,
		r.statRetries,
		r.lookupDuration,
		r.batchWorkers,
		r.runRecords,
		r.runDuration,
		r.runTimestamp,
	)
	return r
}

// ObserveLookup records one finished lookup.
func (r *Recorder) ObserveLookup(result string, d time.Duration) {
	if r == nil {
		return
	}
	r.lookups.WithLabelValues(result).Inc()
	r.lookupDuration.Observe(d.Seconds())
}

// ObserveLookupError counts a traversal error absorbed by the locator.
func (r *Recorder) ObserveLookupError() {
	if r == nil {
		return
	}
	r.lookupErrors.Inc()
}

// ObserveStatRetry counts a stat retried after ESTALE.
func (r *Recorder) ObserveStatRetry() {
	if r == nil {
		return
	}
	r.statRetries.Inc()
}

// SetWorkers records the pool size.
func (r *Recorder) SetWorkers(n int) {
	if r == nil {
		return
	}
	r.batchWorkers.Set(float64(n))
}

// ObserveRun records the final per-kind counts and run timing.
func (r *Recorder) ObserveRun(counts map[string]int, elapsed time.Duration, finished time.Time) {
	if r == nil {
		return
	}
	for kind, n := range counts {
		r.runRecords.WithLabelValues(kind).Set(float64(n))
	}
	r.runDuration.Set(elapsed.Seconds())
	r.runTimestamp.Set(float64(finished.Unix()))
}

// Registry exposes the underlying registry (used by tests and exporters).
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every gathered family to path in the text exposition
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
