// Package metrics records Prometheus instrumentation for a relocation run.
//
// Each run owns its own registry; nothing is registered globally. The CLI
// writes the gathered families to a node-exporter textfile when
// metrics.textfile_path is configured, so cron-driven runs can be scraped.
//
// Metric families (all prefixed with "relocator_"):
//   - lookups_total{result}: lookups by result (direct, walk, missing)
//   - lookup_errors_total: traversal errors absorbed as "not found"
//   - stat_retries_total: stat calls retried after a stale NFS handle
//   - lookup_duration_seconds: per-filename lookup latency
//   - batch_workers: pool size of the last batch
//   - run_records{kind}: records per outcome kind
//   - run_duration_seconds: wall time of the run
//   - run_timestamp_seconds: unix time the run finished
package metrics
