package metrics

import (
	"context"
	"time"

	"github.com/cuemby/sawtable/pkg/filestore"
	"github.com/cuemby/sawtable/pkg/partitionstore"
)

// Collector periodically samples a table's file and partition stores
// into gauges, the way Collector in the teacher repo sampled its
// manager's node/service/task counts.
type Collector struct {
	files      *filestore.Store
	partitions *partitionstore.Store
	stopCh     chan struct{}
}

// NewCollector creates a new metrics collector for a table.
func NewCollector(files *filestore.Store, partitions *partitionstore.Store) *Collector {
	return &Collector{
		files:      files,
		partitions: partitions,
		stopCh:     make(chan struct{}),
	}
}

// Start begins collecting metrics every 15 seconds.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectFileMetrics()
	c.collectPartitionMetrics()
}

func (c *Collector) collectFileMetrics() {
	ctx := context.Background()

	refs, err := c.files.GetFileReferences(ctx)
	if err == nil {
		FilesTotal.WithLabelValues("referenced").Set(float64(len(refs)))
	}

	unassigned, err := c.files.GetFileReferencesWithNoJobID(ctx)
	if err == nil {
		FilesTotal.WithLabelValues("unassigned").Set(float64(len(unassigned)))
	}

	ready, err := c.files.GetReadyForGCFilenamesBefore(ctx, time.Now())
	if err == nil {
		FilesTotal.WithLabelValues("ready_for_gc").Set(float64(len(ready)))
	}
}

func (c *Collector) collectPartitionMetrics() {
	ctx := context.Background()

	all, err := c.partitions.GetAllPartitions(ctx)
	if err != nil {
		return
	}
	PartitionsTotal.WithLabelValues("total").Set(float64(len(all)))

	var leaves int
	for _, p := range all {
		if p.IsLeaf {
			leaves++
		}
	}
	PartitionsTotal.WithLabelValues("leaf").Set(float64(leaves))
}
