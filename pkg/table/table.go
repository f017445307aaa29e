package table

import (
	"fmt"
	"time"

	"github.com/cuemby/sawtable/pkg/config"
	"github.com/cuemby/sawtable/pkg/filestore"
	"github.com/cuemby/sawtable/pkg/metrics"
	"github.com/cuemby/sawtable/pkg/partitionstore"
	"github.com/cuemby/sawtable/pkg/txnlog"
)

const (
	filesLogName      = "files"
	partitionsLogName = "partitions"
)

// Table bundles the open stores for one configured table, the unit
// cmd/tablectl and embedding applications operate on.
type Table struct {
	Config     config.Table
	Log        txnlog.TransactionLogStore
	Files      *filestore.Store
	Partitions *partitionstore.Store
}

// Open builds a Table from cfg: it opens the configured log backend,
// wraps it in a FileHead and PartitionHead, and constructs the public
// FileReferenceStore/PartitionStore facades over them.
func Open(cfg config.Table) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logStore, err := openLogStore(cfg)
	if err != nil {
		return nil, err
	}

	retry := txnlog.RetryPolicy{
		MaxAttempts: cfg.CommitRetryLimit,
		BaseBackoff: time.Duration(cfg.CommitBackoffBaseMs) * time.Millisecond,
	}

	fileHead := txnlog.NewFileHead(logStore, filesLogName, retry)
	fileHead.Observer = metrics.TxnLogObserver{}
	partitionHead := txnlog.NewPartitionHead(logStore, partitionsLogName, retry)
	partitionHead.Observer = metrics.TxnLogObserver{}

	files := filestore.NewStore(fileHead)
	partitions := partitionstore.NewStore(partitionHead, files)

	return &Table{
		Config:     cfg,
		Log:        logStore,
		Files:      files,
		Partitions: partitions,
	}, nil
}

// Close releases the table's underlying log store.
func (t *Table) Close() error {
	return t.Log.Close()
}

func openLogStore(cfg config.Table) (txnlog.TransactionLogStore, error) {
	switch cfg.LogBackend {
	case config.LogBackendBolt:
		return txnlog.NewBoltLogStore(cfg.DataDir)
	case config.LogBackendRaft:
		return txnlog.NewRaftLogStore(txnlog.RaftConfig{
			NodeID:    cfg.TableName,
			BindAddr:  "127.0.0.1:7946",
			DataDir:   cfg.DataDir,
			Bootstrap: true,
		})
	default:
		return nil, fmt.Errorf("table: unknown logBackend %q", cfg.LogBackend)
	}
}

