package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "tableName: orders\n")

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "orders", cfg.TableName)
	assert.Equal(t, 10*time.Minute, cfg.GracePeriodForGC)
	assert.Equal(t, CompactionStrategyWholeFile, cfg.CompactionStrategy)
	assert.Equal(t, 4, cfg.CompactionMinFiles)
	assert.Equal(t, LogBackendBolt, cfg.LogBackend)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
tableName: orders
gracePeriodForGC: 5m
compactionStrategy: splitting
compactionMinFiles: 8
logBackend: raft
dataDir: /var/lib/sawtable
`)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.GracePeriodForGC)
	assert.Equal(t, CompactionStrategySplitting, cfg.CompactionStrategy)
	assert.Equal(t, 8, cfg.CompactionMinFiles)
	assert.Equal(t, LogBackendRaft, cfg.LogBackend)
	assert.Equal(t, "/var/lib/sawtable", cfg.DataDir)
}

func TestLoadRejectsMissingTableName(t *testing.T) {
	path := writeConfig(t, "dataDir: ./data\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnrunnableConfig(t *testing.T) {
	path := writeConfig(t, "tableName: orders\ncommitRetryLimit: 0\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(t *Table)
		wantErr bool
	}{
		{"valid defaults", func(*Table) {}, false},
		{"unknown log backend", func(t *Table) { t.LogBackend = "unknown" }, true},
		{"unknown compaction strategy", func(t *Table) { t.CompactionStrategy = "unknown" }, true},
		{"non-positive retry limit", func(t *Table) { t.CommitRetryLimit = 0 }, true},
		{"empty data dir", func(t *Table) { t.DataDir = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.TableName = "orders"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
