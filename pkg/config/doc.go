// Package config loads a table's YAML configuration file, the property
// table of spec.md §6: grace period for GC, compaction thresholds,
// commit retry tuning, which log backend to use, and the data directory.
// Every property name is opaque to the rest of the module — pkg/config
// is the only reader.
package config
