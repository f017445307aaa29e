package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/sawtable/pkg/compaction"
	"github.com/cuemby/sawtable/pkg/config"
	"github.com/cuemby/sawtable/pkg/filestore"
	"github.com/cuemby/sawtable/pkg/log"
	"github.com/cuemby/sawtable/pkg/metrics"
	"github.com/cuemby/sawtable/pkg/table"
	"github.com/cuemby/sawtable/pkg/txnlog"
	"github.com/cuemby/sawtable/pkg/types"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tablectl",
	Short: "tablectl - operator CLI for a sawtable partitioned table",
	Long: `tablectl inspects and operates a sawtable table: its transaction log,
partition tree, unassigned file references, and compaction pipeline.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"tablectl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "./table.yaml", "Path to the table's YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(partitionCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func loadTable(cmd *cobra.Command) (*table.Table, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return table.Open(cfg)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the initial partition tree for a fresh table",
	Long: `Install a single root partition covering the whole key space.
Fails unless the table's file store is currently empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		logger := log.WithComponent("init").With().Str("table_name", t.Config.TableName).Logger()

		root := &types.Partition{
			ID:     "root",
			IsLeaf: true,
			Region: types.Region{Ranges: []types.Range{{FieldName: "key", MaxUnbounded: true}}},
		}
		if err := t.Partitions.Initialise(context.Background(), []*types.Partition{root}); err != nil {
			logger.Error().Err(err).Msg("initialise partitions failed")
			return fmt.Errorf("initialise partitions: %w", err)
		}
		logger.Info().Msg("table initialised with root partition")
		fmt.Println("table initialised with root partition")
		return nil
	},
}

var partitionCmd = &cobra.Command{
	Use:   "partitions",
	Short: "Inspect the partition tree",
}

var partitionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every partition",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		partitions, err := t.Partitions.GetAllPartitions(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("%-20s %-8s %-20s\n", "ID", "LEAF", "PARENT")
		for _, p := range partitions {
			fmt.Printf("%-20s %-8t %-20s\n", p.ID, p.IsLeaf, p.ParentID)
		}
		return nil
	},
}

var partitionCascadeCmd = &cobra.Command{
	Use:   "split-cascade",
	Short: "Run one round of the split-file-references cascade",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		logger := log.WithTable(t.Config.TableName)
		ctx := context.Background()
		partitions, err := t.Partitions.State(ctx)
		if err != nil {
			return err
		}

		timer := metrics.NewTimer()
		result, err := filestore.RunSplitCascade(ctx, t.Files, partitions)
		timer.ObserveDuration(metrics.SplitCascadeDuration)
		if err != nil {
			logger.Error().Err(err).Msg("split cascade failed")
			return fmt.Errorf("split cascade: %w", err)
		}
		logger.Info().Int("references_moved", result.RequestCount).Msg("split cascade complete")
		fmt.Printf("split cascade moved %d file reference(s)\n", result.RequestCount)
		return nil
	},
}

func init() {
	partitionCmd.AddCommand(partitionListCmd)
	partitionCmd.AddCommand(partitionCascadeCmd)
}

var fileCmd = &cobra.Command{
	Use:   "files",
	Short: "Inspect file references",
}

var fileListUnassignedCmd = &cobra.Command{
	Use:   "unassigned",
	Short: "List file references with no compaction job assigned",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		refs, err := t.Files.GetFileReferencesWithNoJobID(context.Background())
		if err != nil {
			return err
		}
		for _, ref := range refs {
			log.WithPartition(ref.PartitionID).Debug().
				Str("filename", ref.Filename).
				Int64("records", ref.NumberOfRecords).
				Msg("unassigned file reference")
			fmt.Printf("%s\tpartition=%s\trecords=%d\n", ref.Filename, ref.PartitionID, ref.NumberOfRecords)
		}
		return nil
	},
}

var fileGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete file reference counts for files ready to be garbage collected",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		logger := log.WithTable(t.Config.TableName)
		ctx := context.Background()
		cutoff := time.Now().Add(-t.Config.GracePeriodForGC)

		timer := metrics.NewTimer()
		names, err := t.Files.GetReadyForGCFilenamesBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logger.Debug().Msg("no files ready for garbage collection")
			fmt.Println("no files ready for garbage collection")
			return nil
		}
		if err := t.Files.DeleteGarbageCollectedFileReferenceCounts(ctx, names); err != nil {
			logger.Error().Err(err).Msg("delete GC'd file counts failed")
			return fmt.Errorf("delete GC'd file counts: %w", err)
		}
		timer.ObserveDuration(metrics.GCCycleDuration)
		metrics.GCFilesDeletedTotal.Add(float64(len(names)))
		logger.Info().Int("files_deleted", len(names)).Msg("garbage collection complete")
		fmt.Printf("deleted %d file reference count(s)\n", len(names))
		return nil
	},
}

func init() {
	fileCmd.AddCommand(fileListUnassignedCmd)
	fileCmd.AddCommand(fileGCCmd)
}

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Propose compaction jobs for the table's unassigned references",
}

var compactPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the compaction jobs the configured strategy would propose",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		ctx := context.Background()
		leaves, err := t.Partitions.GetLeafPartitions(ctx)
		if err != nil {
			return err
		}
		unassigned, err := t.Files.GetFileReferencesWithNoJobID(ctx)
		if err != nil {
			return err
		}

		var strategy compaction.JobFactory
		switch t.Config.CompactionStrategy {
		case config.CompactionStrategySplitting:
			strategy = compaction.SplittingStrategy{}
		default:
			strategy = compaction.WholeFileStrategy{
				MinFiles:   t.Config.CompactionMinFiles,
				MinRecords: t.Config.CompactionMinBytes,
			}
		}

		jobs := strategy.FindCompactableSets(leaves, compaction.GroupUnassignedByPartition(unassigned))
		metrics.CompactionJobsCreatedTotal.WithLabelValues(string(t.Config.CompactionStrategy)).Add(float64(len(jobs)))

		logger := log.WithTable(t.Config.TableName)
		if len(jobs) == 0 {
			logger.Debug().Msg("no compaction jobs proposed")
			fmt.Println("no compaction jobs proposed")
			return nil
		}
		for _, job := range jobs {
			log.WithJob(job.ID).Info().
				Str("partition_id", job.PartitionID).
				Int("input_count", len(job.InputFilenames)).
				Str("output_filename", job.OutputFilename).
				Msg("compaction job proposed")
			fmt.Printf("%s\tpartition=%s\tinputs=%d\toutput=%s\n", job.ID, job.PartitionID, len(job.InputFilenames), job.OutputFilename)
		}
		return nil
	},
}

func init() {
	compactCmd.AddCommand(compactPlanCmd)
}

// registerTxnLogHealth reports the txnlog component as healthy only when
// the backing store is actually able to serve commits: a bolt-backed log
// is healthy whenever it's open, but a raft-backed log is only able to
// accept Adds while this node holds leadership.
func registerTxnLogHealth(logStore txnlog.TransactionLogStore) {
	raft, ok := logStore.(*txnlog.RaftLogStore)
	if !ok {
		metrics.RegisterComponent("txnlog", true, "open")
		return
	}
	if raft.IsLeader() {
		metrics.RegisterComponent("txnlog", true, "leader")
	} else {
		metrics.RegisterComponent("txnlog", false, "not leader")
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the metrics/health HTTP endpoints and a periodic metrics collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		addr, _ := cmd.Flags().GetString("addr")
		logger := log.WithTable(t.Config.TableName)

		metrics.SetVersion(Version)
		registerTxnLogHealth(t.Log)
		metrics.RegisterComponent("objectstore", true, "assumed reachable")
		metrics.RegisterComponent("api", true, "ready")

		collector := metrics.NewCollector(t.Files, t.Partitions)
		collector.Start()
		defer collector.Stop()

		healthTicker := time.NewTicker(5 * time.Second)
		defer healthTicker.Stop()
		go func() {
			for range healthTicker.C {
				registerTxnLogHealth(t.Log)
			}
		}()

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.HandleFunc("/healthz", metrics.HealthHandler())
		mux.HandleFunc("/readyz", metrics.ReadyHandler())
		mux.HandleFunc("/livez", metrics.LivenessHandler())

		srv := &http.Server{Addr: addr, Handler: mux}
		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
		logger.Info().Str("addr", addr).Msg("serving metrics/health endpoints")
		fmt.Printf("serving metrics/health on %s\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info().Msg("shutdown signal received")
		case err := <-errCh:
			logger.Error().Err(err).Msg("metrics/health server failed")
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:9090", "Address for metrics/health endpoints")
}
