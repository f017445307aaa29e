/*
Package log provides structured logging for sawtable using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

sawtable's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("compaction")              │          │
	│  │  - WithTable("orders")                      │          │
	│  │  - WithPartition("p-abc123")                │          │
	│  │  - WithJob("job-def456")                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "compaction",               │          │
	│  │    "time": "2026-07-31T10:30:00Z",         │          │
	│  │    "message": "job committed"               │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2026-07-31T10:30:00Z INF job committed     │          │
	│  │    component=compaction                     │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all sawtable packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithTable: Add table name context
  - WithPartition: Add partition id context
  - WithJob: Add compaction job id context

# Usage

Initializing the Logger:

	import "github.com/cuemby/sawtable/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

Simple Logging:

	log.Info("table initialised")
	log.Debug("checking partition tree")
	log.Warn("commit retry limit approaching")
	log.Error("failed to connect to object store")
	log.Fatal("cannot start without transaction log") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("table_name", "orders").
		Int("partition_count", 12).
		Msg("partitions initialised")

	log.Logger.Error().
		Err(err).
		Str("partition_id", "p-abc").
		Msg("split cascade failed")

Component Loggers:

	// Create component-specific logger
	compactionLog := log.WithComponent("compaction")
	compactionLog.Info().Msg("starting compaction sweep")
	compactionLog.Debug().Str("job_id", "job-123").Msg("job proposed")

	// Multiple context fields
	jobLog := log.WithComponent("compaction").
		With().Str("partition_id", "p-abc").
		Str("job_id", "job-123").Logger()
	jobLog.Info().Msg("job committed")
	jobLog.Error().Err(err).Msg("job failed")

Context Logger Helpers:

	// Table-specific logs
	tableLog := log.WithTable("orders")
	tableLog.Info().Msg("commit applied")

	// Partition-specific logs
	partitionLog := log.WithPartition("p-abc123")
	partitionLog.Info().Msg("partition split")

	// Job-specific logs
	jobLog := log.WithJob("job-def456")
	jobLog.Info().Msg("compaction started")

# Integration Points

This package is imported only by cmd/tablectl, whose subcommands log CLI
operations through WithTable, WithPartition, WithJob and WithComponent
loggers. pkg/txnlog, pkg/filestore, pkg/partitionstore and
pkg/compaction do not import it.

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() for stack traces
  - Include context (table name, partition id, job id)

Don't:
  - Log object store credentials
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings (use .Str, .Int)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
