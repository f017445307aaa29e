/*
Package metrics provides Prometheus metrics collection and exposition for
a sawtable table.

Metrics cover the transaction log (commits, retries, head lag), the
partition tree and file reference counts, the split cascade, compaction
jobs, and garbage collection. All metrics are registered at package init
and exposed via Handler for scraping.

# Metric reference

Transaction log:

	sawtable_txnlog_commits_total{log, status}
	sawtable_txnlog_commit_retries_total{log}
	sawtable_txnlog_commit_duration_seconds{log}
	sawtable_txnlog_head_lag{log}

Raft (registered, but not set by any code in this module):

	sawtable_raft_is_leader
	sawtable_raft_applied_index
	sawtable_raft_apply_duration_seconds

File and partition state:

	sawtable_files_total{state}        # state: referenced, unassigned, ready_for_gc
	sawtable_partitions_total{kind}     # kind: total, leaf
	sawtable_split_cascade_duration_seconds
	sawtable_split_cascade_references_moved_total

Compaction:

	sawtable_compaction_jobs_created_total{strategy}
	sawtable_compaction_job_duration_seconds{strategy}
	sawtable_compaction_jobs_failed_total{strategy, reason}

Garbage collection:

	sawtable_gc_files_deleted_total
	sawtable_gc_cycle_duration_seconds

# Usage

	import "github.com/cuemby/sawtable/pkg/metrics"

	timer := metrics.NewTimer()
	// ... run one split-cascade round ...
	timer.ObserveDuration(metrics.SplitCascadeDuration)

The transaction log metrics are recorded by the commit loop itself:
pkg/table.Open attaches a TxnLogObserver to each head, which counts
commits with status "ok" or "exhausted".

Collector samples file/partition counts on a timer:

	collector := metrics.NewCollector(fileStore, partitionStore)
	collector.Start()
	defer collector.Stop()

# HTTP endpoints

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", metrics.HealthHandler())
	mux.HandleFunc("/readyz", metrics.ReadyHandler())
	mux.HandleFunc("/livez", metrics.LivenessHandler())

# Suggested alerts

	- rate(sawtable_compaction_jobs_failed_total[5m]) > 0
	- sawtable_txnlog_head_lag > 1000
	- max(sawtable_raft_is_leader) == 0   (when running raft)
	- histogram_quantile(0.95, sawtable_txnlog_commit_duration_seconds_bucket) > 1
*/
package metrics
