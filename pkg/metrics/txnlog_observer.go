package metrics

import "time"

// TxnLogObserver implements txnlog.CommitObserver, recording every
// FileHead/PartitionHead commit attempt to the package's transaction-log
// Prometheus metrics. pkg/table wires one into each head it opens.
type TxnLogObserver struct{}

func (TxnLogObserver) ObserveCommit(logName string, ok bool, retries int, duration time.Duration) {
	status := "ok"
	if !ok {
		status = "exhausted"
	}
	TransactionLogCommitsTotal.WithLabelValues(logName, status).Inc()
	TransactionLogCommitRetries.WithLabelValues(logName).Add(float64(retries))
	TransactionLogCommitDuration.WithLabelValues(logName).Observe(duration.Seconds())
}

func (TxnLogObserver) ObserveHeadLag(logName string, entriesReplayed int) {
	TransactionLogHeadLag.WithLabelValues(logName).Set(float64(entriesReplayed))
}
