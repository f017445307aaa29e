package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LogBackend selects which txnlog.TransactionLogStore implementation a
// table runs on.
type LogBackend string

const (
	LogBackendBolt LogBackend = "bolt"
	LogBackendRaft LogBackend = "raft"
)

// CompactionStrategy names a registered compaction.JobFactory.
type CompactionStrategy string

const (
	CompactionStrategyWholeFile  CompactionStrategy = "whole-file"
	CompactionStrategySplitting  CompactionStrategy = "splitting"
)

// Table is a table's on-disk YAML configuration, spec.md §6.3's property
// list: GC timing, compaction thresholds, commit retry tuning, and which
// log backend and data directory to run against.
type Table struct {
	TableName            string        `yaml:"tableName"`
	GracePeriodForGC      time.Duration `yaml:"gracePeriodForGC"`
	CompactionStrategy    CompactionStrategy `yaml:"compactionStrategy"`
	CompactionMinFiles    int           `yaml:"compactionMinFiles"`
	CompactionMinBytes    int64         `yaml:"compactionMinBytes"`
	MaxReferencesPerFile  int           `yaml:"maxReferencesPerFile"`
	CommitRetryLimit      int           `yaml:"commitRetryLimit"`
	CommitBackoffBaseMs   int           `yaml:"commitBackoffBaseMs"`
	LogBackend            LogBackend    `yaml:"logBackend"`
	DataDir               string        `yaml:"dataDir"`
}

// defaults mirrors the zero-config values a table should run with if the
// YAML file omits a field entirely.
func defaults() Table {
	return Table{
		GracePeriodForGC:     10 * time.Minute,
		CompactionStrategy:   CompactionStrategyWholeFile,
		CompactionMinFiles:   4,
		CompactionMinBytes:   1 << 30,
		MaxReferencesPerFile: 0,
		CommitRetryLimit:     10,
		CommitBackoffBaseMs:  50,
		LogBackend:           LogBackendBolt,
		DataDir:              "./data",
	}
}

// Load reads and parses a table config file, applying defaults for any
// field the YAML omits.
func Load(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Table{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.TableName == "" {
		return Table{}, fmt.Errorf("config: %s: tableName is required", path)
	}
	if err := cfg.Validate(); err != nil {
		return Table{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects combinations that would leave a table unrunnable.
func (t Table) Validate() error {
	switch t.LogBackend {
	case LogBackendBolt, LogBackendRaft:
	default:
		return fmt.Errorf("unknown logBackend %q", t.LogBackend)
	}
	switch t.CompactionStrategy {
	case CompactionStrategyWholeFile, CompactionStrategySplitting:
	default:
		return fmt.Errorf("unknown compactionStrategy %q", t.CompactionStrategy)
	}
	if t.CommitRetryLimit <= 0 {
		return fmt.Errorf("commitRetryLimit must be positive, got %d", t.CommitRetryLimit)
	}
	if t.DataDir == "" {
		return fmt.Errorf("dataDir must not be empty")
	}
	return nil
}
