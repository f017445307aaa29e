package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/sawtable/pkg/filestore"
	"github.com/cuemby/sawtable/pkg/partitionstore"
	"github.com/cuemby/sawtable/pkg/txnlog"
	"github.com/cuemby/sawtable/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newCollectorTestStores(t *testing.T) (*filestore.Store, *partitionstore.Store) {
	t.Helper()
	boltStore, err := txnlog.NewBoltLogStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { boltStore.Close() })

	retry := txnlog.RetryPolicy{MaxAttempts: 5, BaseBackoff: 0}
	files := filestore.NewStore(txnlog.NewFileHead(boltStore, "files", retry))
	partitions := partitionstore.NewStore(txnlog.NewPartitionHead(boltStore, "partitions", retry), files)
	return files, partitions
}

func TestCollectorCollectFileMetrics(t *testing.T) {
	ctx := context.Background()
	files, partitions := newCollectorTestStores(t)

	file, err := types.NewAllReferencesToAFile("a.parquet", []*types.FileReference{
		{Filename: "a.parquet", PartitionID: "root", NumberOfRecords: 10},
	}, time.Now())
	assert.NoError(t, err)
	assert.NoError(t, files.AddFiles(ctx, []*types.AllReferencesToAFile{file}))

	c := NewCollector(files, partitions)
	c.collectFileMetrics()

	assert.Equal(t, float64(1), testutil.ToFloat64(FilesTotal.WithLabelValues("referenced")))
	assert.Equal(t, float64(1), testutil.ToFloat64(FilesTotal.WithLabelValues("unassigned")))
}

func TestCollectorCollectPartitionMetrics(t *testing.T) {
	ctx := context.Background()
	files, partitions := newCollectorTestStores(t)

	root := &types.Partition{ID: "root", IsLeaf: true, Region: types.Region{Ranges: []types.Range{{FieldName: "k", MaxUnbounded: true}}}}
	assert.NoError(t, partitions.Initialise(ctx, []*types.Partition{root}))

	c := NewCollector(files, partitions)
	c.collectPartitionMetrics()

	assert.Equal(t, float64(1), testutil.ToFloat64(PartitionsTotal.WithLabelValues("total")))
	assert.Equal(t, float64(1), testutil.ToFloat64(PartitionsTotal.WithLabelValues("leaf")))
}

func TestCollectorStartStop(t *testing.T) {
	files, partitions := newCollectorTestStores(t)
	c := NewCollector(files, partitions)
	c.Start()
	c.Stop()
}
